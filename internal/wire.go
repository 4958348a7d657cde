//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/handler"
	"github.com/zhangjialei/tradebook/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewAuthHandler,
		handler.NewJournalHandler,
		handler.NewSyncHandler,
	)

	serviceSet = wire.NewSet(
		provideAuthService,
		provideTelegram,
		service.NewAccountService,
		service.NewJournalService,
		service.NewReconcileService,
		service.NewSyncService,
		service.NewSyncScheduler,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		serviceSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
