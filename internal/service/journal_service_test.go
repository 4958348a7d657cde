package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhangjialei/tradebook/internal/models"
	"go.uber.org/zap"
)

func TestListRecentTrades(t *testing.T) {
	db := newTestDB(t)
	account := newTestAccount(t, db)
	s := NewReconcileService(db, zap.NewNop())

	applyFills(t, s, account,
		makeFill(models.SideBuy, 10, 100, "ord-1", 0),
		makeFill(models.SideSell, 4, 105, "ord-2", time.Minute),
		makeFill(models.SideSell, 6, 110, "ord-3", 2*time.Minute),
	)

	j := NewJournalService(db, zap.NewNop())
	trades, err := j.ListRecentTrades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// 平仓时间倒序，最近的在前
	assert.Equal(t, "ord-3", trades[0].ExitOrderID)
	assert.Equal(t, "ord-2", trades[1].ExitOrderID)

	trades, err = j.ListRecentTrades(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "ord-3", trades[0].ExitOrderID)
}
