package repo

import (
	"context"
	"time"

	"github.com/go-orz/orz"
	"github.com/zhangjialei/tradebook/internal/models"
	"gorm.io/gorm"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, string](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, string]
}

// TradeQuery 平仓记录查询条件
type TradeQuery struct {
	UserID    string
	AccountID string
	Symbol    string
	From      time.Time
	To        time.Time
	Limit     int
}

// FindByQuery 按条件查询平仓记录，按平仓时间倒序
func (r TradeRepo) FindByQuery(ctx context.Context, q TradeQuery) ([]models.Trade, error) {
	db := r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ?", q.UserID)

	if q.AccountID != "" {
		db = db.Where("account_id = ?", q.AccountID)
	}
	if q.Symbol != "" {
		db = db.Where("symbol = ?", q.Symbol)
	}
	if !q.From.IsZero() {
		db = db.Where("closed_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("closed_at < ?", q.To)
	}

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var trades []models.Trade
	err := db.Order("closed_at DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

// FindRecentTrades 获取最近的平仓记录
func (r TradeRepo) FindRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("closed_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// SumQuantityByAccountSymbol 统计某账户某标的已平仓数量合计
func (r TradeRepo) SumQuantityByAccountSymbol(ctx context.Context, accountID, symbol string) (float64, error) {
	var total float64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}
