package service

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/pkg/broker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func applyFills(t *testing.T, s *ReconcileService, account *models.BrokerAccount, fills ...broker.Fill) {
	t.Helper()
	for _, fill := range fills {
		applied, err := s.ApplyFill(context.Background(), account, fill)
		require.NoError(t, err)
		require.True(t, applied, "fill %s should apply", fill.OrderID)
	}
}

func openPositions(t *testing.T, db *gorm.DB, accountID, symbol, direction string) []models.Position {
	t.Helper()
	positions, err := repo.NewPositionRepo(db).FindOpenByKey(context.Background(), accountID, symbol, direction)
	require.NoError(t, err)
	return positions
}

func closedTrades(t *testing.T, db *gorm.DB, userID string) []models.Trade {
	t.Helper()
	trades, err := repo.NewTradeRepo(db).FindByQuery(context.Background(), repo.TradeQuery{UserID: userID})
	require.NoError(t, err)
	return trades
}

func TestApplyFillOpensPosition(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account, makeFill(models.SideBuy, 10, 100, "ord-1", 0))

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, float64(10), p.Quantity)
	assert.Equal(t, float64(100), p.AvgEntryPrice)
	assert.Equal(t, float64(1000), p.EntryAmount)
	assert.Equal(t, "ord-1", p.LastOrderID)
	assert.True(t, testBaseTime.Equal(p.OpenedAt))

	fills, err := repo.NewFillRepo(db).FindByAccount(context.Background(), account.ID, 10)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "ord-1", fills[0].OrderID)
}

func TestApplyFillSellOpensShort(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account, makeFill(models.SideSell, 5, 50, "ord-1", 0))

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionShort)
	require.Len(t, positions, 1)
	assert.Equal(t, float64(5), positions[0].Quantity)
	assert.Equal(t, float64(50), positions[0].AvgEntryPrice)
	assert.Empty(t, closedTrades(t, db, account.UserID))
}

func TestApplyFillAveragesIn(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideBuy, 10, 200, "ord-2", time.Minute),
	)

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, float64(20), p.Quantity)
	assert.Equal(t, float64(150), p.AvgEntryPrice)
	assert.Equal(t, float64(3000), p.EntryAmount)
	// 摊平不产生平仓记录，开仓时间保持首笔成交
	assert.Empty(t, closedTrades(t, db, account.UserID))
	assert.True(t, testBaseTime.Equal(p.OpenedAt))
}

func TestApplyFillPartialClose(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideSell, 4, 105, "ord-2", time.Minute),
	)

	trades := closedTrades(t, db, account.UserID)
	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, float64(4), trade.Quantity)
	assert.Equal(t, float64(100), trade.EntryPrice)
	assert.Equal(t, float64(105), trade.ExitPrice)
	assert.Equal(t, float64(20), trade.PnlAmount)
	assert.Equal(t, float64(5), trade.PnlPercent)
	assert.Equal(t, "ord-1", trade.EntryOrderID)
	assert.Equal(t, "ord-2", trade.ExitOrderID)

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, float64(6), p.Quantity)
	assert.Equal(t, float64(100), p.AvgEntryPrice)
	assert.Equal(t, float64(600), p.EntryAmount)
}

func TestApplyFillExactClose(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideSell, 5, 50, "ord-1", 0),
		makeFill(models.SideBuy, 5, 45, "ord-2", time.Minute),
	)

	trades := closedTrades(t, db, account.UserID)
	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, models.DirectionShort, trade.Direction)
	assert.Equal(t, float64(5), trade.Quantity)
	assert.Equal(t, float64(25), trade.PnlAmount)
	assert.Equal(t, float64(10), trade.PnlPercent)

	// 持仓清零后删除，两个方向都不应有残留
	assert.Empty(t, openPositions(t, db, account.ID, "RELIANCE", models.DirectionShort))
	assert.Empty(t, openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong))
}

func TestApplyFillFlipsDirection(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideSell, 15, 110, "ord-2", time.Minute),
	)

	trades := closedTrades(t, db, account.UserID)
	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, float64(10), trade.Quantity)
	assert.Equal(t, float64(100), trade.PnlAmount)

	// 多头被吃光，余量以成交价反向开空
	assert.Empty(t, openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong))
	shorts := openPositions(t, db, account.ID, "RELIANCE", models.DirectionShort)
	require.Len(t, shorts, 1)
	short := shorts[0]
	assert.Equal(t, float64(5), short.Quantity)
	assert.Equal(t, float64(110), short.AvgEntryPrice)
	assert.Equal(t, float64(550), short.EntryAmount)
	assert.True(t, testBaseTime.Add(time.Minute).Equal(short.OpenedAt))
}

func TestApplyFillFlipThenClose(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	// 翻转出的空头再被买单平掉，全程应产生两个切片且无残留持仓
	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideSell, 15, 110, "ord-2", time.Minute),
		makeFill(models.SideBuy, 5, 90, "ord-3", 2*time.Minute),
	)

	trades := closedTrades(t, db, account.UserID)
	require.Len(t, trades, 2)

	byDirection := map[string]models.Trade{}
	for _, trade := range trades {
		byDirection[trade.Direction] = trade
	}

	long := byDirection[models.DirectionLong]
	assert.Equal(t, float64(10), long.Quantity)
	assert.Equal(t, float64(100), long.EntryPrice)
	assert.Equal(t, float64(110), long.ExitPrice)
	assert.Equal(t, float64(100), long.PnlAmount)

	short := byDirection[models.DirectionShort]
	assert.Equal(t, float64(5), short.Quantity)
	assert.Equal(t, float64(110), short.EntryPrice)
	assert.Equal(t, float64(90), short.ExitPrice)
	assert.Equal(t, float64(100), short.PnlAmount)

	assert.Empty(t, openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong))
	assert.Empty(t, openPositions(t, db, account.ID, "RELIANCE", models.DirectionShort))

	closed, err := repo.NewTradeRepo(db).SumQuantityByAccountSymbol(context.Background(), account.ID, "RELIANCE")
	require.NoError(t, err)
	assert.InDelta(t, float64(15), closed, quantityEpsilon)
}

func TestApplyFillDuplicateOrderID(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	fill := makeFill(models.SideBuy, 10, 100, "ord-1", 0)
	applyFills(t, s, account, fill)

	applied, err := s.ApplyFill(context.Background(), account, fill)
	require.NoError(t, err)
	assert.False(t, applied)

	positions := openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong)
	require.Len(t, positions, 1)
	assert.Equal(t, float64(10), positions[0].Quantity)

	fills, err := repo.NewFillRepo(db).FindByAccount(context.Background(), account.ID, 10)
	require.NoError(t, err)
	assert.Len(t, fills, 1)
}

func TestApplyFillQuantityConservation(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideBuy, 5, 120, "ord-2", time.Minute),
		makeFill(models.SideSell, 8, 130, "ord-3", 2*time.Minute),
	)

	closed, err := repo.NewTradeRepo(db).SumQuantityByAccountSymbol(context.Background(), account.ID, "RELIANCE")
	require.NoError(t, err)

	var open float64
	for _, p := range openPositions(t, db, account.ID, "RELIANCE", models.DirectionLong) {
		open += p.Quantity
	}

	// 已平仓数量 + 剩余持仓数量 = 累计买入数量
	assert.InDelta(t, float64(15), closed+open, quantityEpsilon)
	assert.InDelta(t, float64(8), closed, quantityEpsilon)
	assert.InDelta(t, float64(7), open, quantityEpsilon)
}

func TestApplyFillInvariantViolation(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	// 人为制造不变量破坏：同键两条多头持仓
	for i := 0; i < 2; i++ {
		p := models.Position{
			ID:            ulid.Make().String(),
			UserID:        account.UserID,
			AccountID:     account.ID,
			Broker:        account.Broker,
			Symbol:        "RELIANCE",
			Direction:     models.DirectionLong,
			Quantity:      5,
			AvgEntryPrice: 100,
			EntryAmount:   500,
			OpenedAt:      testBaseTime,
		}
		require.NoError(t, db.Create(&p).Error)
	}

	applied, err := s.ApplyFill(context.Background(), account, makeFill(models.SideSell, 5, 110, "ord-9", time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.False(t, applied)

	// 事务回滚：没有平仓记录也没有流水入账
	assert.Empty(t, closedTrades(t, db, account.UserID))
	fills, err := repo.NewFillRepo(db).FindByAccount(context.Background(), account.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, fills)
}
