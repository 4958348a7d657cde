package telegram

import (
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
	"github.com/zhangjialei/tradebook/internal/models"
)

// SyncReport 同步结果通知内容
type SyncReport struct {
	Broker    string
	Label     string
	Processed int
	Duplicate int
	Malformed int
	Err       error
}

const syncSuccessTemplate = `✅ *{{broker}}* {{label}} 同步完成
入账 {{processed}} 笔，重复跳过 {{duplicate}} 笔，异常跳过 {{malformed}} 笔`

const syncFailedTemplate = `❌ *{{broker}}* {{label}} 同步失败
已入账 {{processed}} 笔后中止
原因：{{error}}`

const recentTradeLineTemplate = `{{symbol}} {{direction}} {{quantity}} 开 {{entry}} 平 {{exit}} 盈亏 {{pnl}}`

// RenderRecentTrades 渲染 /recent 指令的最近平仓列表
func RenderRecentTrades(trades []models.Trade) string {
	if len(trades) == 0 {
		return "暂无平仓记录"
	}

	tmpl := fasttemplate.New(recentTradeLineTemplate, "{{", "}}")
	var b strings.Builder
	b.WriteString("最近平仓：\n")
	for _, trade := range trades {
		direction := "多"
		if trade.Direction == models.DirectionShort {
			direction = "空"
		}
		b.WriteString(tmpl.ExecuteString(map[string]interface{}{
			"symbol":    trade.Symbol,
			"direction": direction,
			"quantity":  strconv.FormatFloat(trade.Quantity, 'f', -1, 64),
			"entry":     strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
			"exit":      strconv.FormatFloat(trade.ExitPrice, 'f', -1, 64),
			"pnl":       strconv.FormatFloat(trade.PnlAmount, 'f', -1, 64),
		}))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSyncReport 渲染同步结果通知
func RenderSyncReport(report SyncReport) string {
	template := syncSuccessTemplate
	errMsg := ""
	if report.Err != nil {
		template = syncFailedTemplate
		errMsg = report.Err.Error()
	}

	tmpl := fasttemplate.New(template, "{{", "}}")
	return tmpl.ExecuteString(map[string]interface{}{
		"broker":    report.Broker,
		"label":     report.Label,
		"processed": strconv.Itoa(report.Processed),
		"duplicate": strconv.Itoa(report.Duplicate),
		"malformed": strconv.Itoa(report.Malformed),
		"error":     errMsg,
	})
}
