package service

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JournalService 交易日志查询：未平仓持仓、平仓记录、成交流水、同步历史
type JournalService struct {
	logger *zap.Logger

	*orz.Service
	positionRepo *repo.PositionRepo
	tradeRepo    *repo.TradeRepo
	fillRepo     *repo.FillRepo
	syncLogRepo  *repo.SyncLogRepo
}

// NewJournalService 创建日志查询服务
func NewJournalService(db *gorm.DB, logger *zap.Logger) *JournalService {
	return &JournalService{
		logger:       logger,
		Service:      orz.NewService(db),
		positionRepo: repo.NewPositionRepo(db),
		tradeRepo:    repo.NewTradeRepo(db),
		fillRepo:     repo.NewFillRepo(db),
		syncLogRepo:  repo.NewSyncLogRepo(db),
	}
}

// ListOpenPositions 获取用户全部未平仓持仓
func (s *JournalService) ListOpenPositions(ctx context.Context, userID string) ([]models.Position, error) {
	return s.positionRepo.FindByUser(ctx, userID)
}

// ListTrades 按条件查询平仓记录
func (s *JournalService) ListTrades(ctx context.Context, q repo.TradeQuery) ([]models.Trade, error) {
	return s.tradeRepo.FindByQuery(ctx, q)
}

// ListRecentTrades 获取全站最近的平仓记录，供机器人指令等单人场景使用
func (s *JournalService) ListRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	return s.tradeRepo.FindRecentTrades(ctx, limit)
}

// ListFills 查询某账户的成交流水
func (s *JournalService) ListFills(ctx context.Context, accountID string, limit int) ([]models.Fill, error) {
	return s.fillRepo.FindByAccount(ctx, accountID, limit)
}

// ListSyncLogs 查询用户最近的同步记录
func (s *JournalService) ListSyncLogs(ctx context.Context, userID string, limit int) ([]models.SyncLog, error) {
	return s.syncLogRepo.FindRecentByUser(ctx, userID, limit)
}
