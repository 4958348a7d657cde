package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/zhangjialei/tradebook/internal/repo"
	"github.com/zhangjialei/tradebook/internal/service"
	"go.uber.org/zap"
)

// JournalHandler 交易日志查询处理器
type JournalHandler struct {
	logger         *zap.Logger
	journalService *service.JournalService
	accountService *service.AccountService
}

// NewJournalHandler 创建日志处理器
func NewJournalHandler(logger *zap.Logger, journalService *service.JournalService, accountService *service.AccountService) *JournalHandler {
	return &JournalHandler{
		logger:         logger,
		journalService: journalService,
		accountService: accountService,
	}
}

// GetPositions 获取未平仓持仓
// GET /api/journal/positions
func (h *JournalHandler) GetPositions(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	positions, err := h.journalService.ListOpenPositions(ctx, userID)
	if err != nil {
		return err
	}

	items := make([]map[string]interface{}, 0, len(positions))
	for i := range positions {
		pos := &positions[i]
		items = append(items, map[string]interface{}{
			"id":              pos.ID,
			"account_id":      pos.AccountID,
			"broker":          pos.Broker,
			"symbol":          pos.Symbol,
			"direction":       pos.Direction,
			"quantity":        pos.Quantity,
			"avg_entry_price": pos.AvgEntryPrice,
			"entry_amount":    pos.EntryAmount,
			"segment":         pos.Segment,
			"holding":         pos.CalculateHoldingStr(),
			"opened_at":       pos.OpenedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"positions": items,
	})
}

// GetTrades 查询平仓记录
// GET /api/journal/trades?account_id=&symbol=&from=&to=&limit=
func (h *JournalHandler) GetTrades(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	q := repo.TradeQuery{
		UserID:    userID,
		AccountID: c.QueryParam("account_id"),
		Symbol:    c.QueryParam("symbol"),
		Limit:     cast.ToInt(c.QueryParam("limit")),
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.ParseInLocation("2006-01-02", from, time.Local); err == nil {
			q.From = t
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.ParseInLocation("2006-01-02", to, time.Local); err == nil {
			q.To = t.AddDate(0, 0, 1) // 含当天
		}
	}

	trades, err := h.journalService.ListTrades(ctx, q)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"trades": trades,
	})
}

// GetFills 查询成交流水
// GET /api/journal/fills?account_id=&limit=
func (h *JournalHandler) GetFills(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	accountID := c.QueryParam("account_id")
	if accountID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "account_id 不能为空",
		})
	}

	fills, err := h.journalService.ListFills(ctx, accountID, cast.ToInt(c.QueryParam("limit")))
	if err != nil {
		return err
	}

	// 只返回属于当前用户的流水
	filtered := fills[:0]
	for _, f := range fills {
		if f.UserID == userID {
			filtered = append(filtered, f)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"fills": filtered,
	})
}

// GetSyncLogs 查询同步记录
// GET /api/journal/sync-logs?limit=
func (h *JournalHandler) GetSyncLogs(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	logs, err := h.journalService.ListSyncLogs(ctx, userID, cast.ToInt(c.QueryParam("limit")))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sync_logs": logs,
	})
}

// ListAccounts 获取绑定的券商账户
// GET /api/journal/accounts
func (h *JournalHandler) ListAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	accounts, err := h.accountService.ListAccounts(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"accounts": accounts,
	})
}

// LinkAccount 绑定券商账户
// POST /api/journal/accounts
func (h *JournalHandler) LinkAccount(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	var req service.LinkAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	view, err := h.accountService.LinkAccount(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

// SetAccountEnabled 启用/停用账户同步
// PUT /api/journal/accounts/:id/enabled
func (h *JournalHandler) SetAccountEnabled(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}

	if err := h.accountService.SetEnabled(ctx, userID, c.Param("id"), req.Enabled); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnlinkAccount 解绑券商账户
// DELETE /api/journal/accounts/:id
func (h *JournalHandler) UnlinkAccount(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)

	if err := h.accountService.UnlinkAccount(ctx, userID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RegisterRoutes 注册路由
func (h *JournalHandler) RegisterRoutes(g *echo.Group) {
	journal := g.Group("/journal")

	journal.GET("/positions", h.GetPositions)
	journal.GET("/trades", h.GetTrades)
	journal.GET("/fills", h.GetFills)
	journal.GET("/sync-logs", h.GetSyncLogs)

	journal.GET("/accounts", h.ListAccounts)
	journal.POST("/accounts", h.LinkAccount)
	journal.PUT("/accounts/:id/enabled", h.SetAccountEnabled)
	journal.DELETE("/accounts/:id", h.UnlinkAccount)
}
