package internal

import (
	"net/http"
	"time"

	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/service"
	"github.com/zhangjialei/tradebook/internal/telegram"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const telegramHTTPTimeout = 10 * time.Second

// provideAuthService provides auth service with jwt secret from config
func provideAuthService(logger *zap.Logger, db *gorm.DB, conf *config.Config) *service.AuthService {
	return service.NewAuthService(logger, db, conf.Security.JwtSecret)
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config, journalService *service.JournalService) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	}, telegram.WithRecentTrades(journalService.ListRecentTrades))
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}
