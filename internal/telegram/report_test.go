package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zhangjialei/tradebook/internal/models"
)

func TestRenderSyncReport(t *testing.T) {
	msg := RenderSyncReport(SyncReport{
		Broker:    "zerodha",
		Label:     "主账户",
		Processed: 12,
		Duplicate: 3,
		Malformed: 1,
	})
	assert.Contains(t, msg, "zerodha")
	assert.Contains(t, msg, "同步完成")
	assert.Contains(t, msg, "入账 12 笔")
	assert.Contains(t, msg, "重复跳过 3 笔")
	assert.Contains(t, msg, "异常跳过 1 笔")
}

func TestRenderRecentTrades(t *testing.T) {
	assert.Equal(t, "暂无平仓记录", RenderRecentTrades(nil))

	msg := RenderRecentTrades([]models.Trade{
		{Symbol: "RELIANCE", Direction: models.DirectionLong, Quantity: 4, EntryPrice: 100, ExitPrice: 105, PnlAmount: 20},
		{Symbol: "TCS", Direction: models.DirectionShort, Quantity: 5, EntryPrice: 50, ExitPrice: 45, PnlAmount: 25},
	})
	assert.Contains(t, msg, "最近平仓")
	assert.Contains(t, msg, "RELIANCE 多 4 开 100 平 105 盈亏 20")
	assert.Contains(t, msg, "TCS 空 5 开 50 平 45 盈亏 25")
}

func TestRenderSyncReportFailed(t *testing.T) {
	msg := RenderSyncReport(SyncReport{
		Broker:    "dhan",
		Processed: 2,
		Err:       errors.New("token expired"),
	})
	assert.Contains(t, msg, "同步失败")
	assert.Contains(t, msg, "已入账 2 笔后中止")
	assert.Contains(t, msg, "token expired")
}
