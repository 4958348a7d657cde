package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zhangjialei/tradebook/internal/service"
	"github.com/zhangjialei/tradebook/internal/xe"
	"go.uber.org/zap"
)

// SyncHandler 同步控制处理器
type SyncHandler struct {
	logger         *zap.Logger
	syncService    *service.SyncService
	scheduler      *service.SyncScheduler
	accountService *service.AccountService
}

// NewSyncHandler 创建同步处理器
func NewSyncHandler(logger *zap.Logger, syncService *service.SyncService, scheduler *service.SyncScheduler, accountService *service.AccountService) *SyncHandler {
	return &SyncHandler{
		logger:         logger,
		syncService:    syncService,
		scheduler:      scheduler,
		accountService: accountService,
	}
}

// TriggerSync 手动触发单个账户同步
// POST /api/sync/accounts/:id
func (h *SyncHandler) TriggerSync(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(string)
	accountID := c.Param("id")

	// 只能同步自己的账户
	accounts, err := h.accountService.ListAccounts(ctx, userID)
	if err != nil {
		return err
	}
	owned := false
	for _, account := range accounts {
		if account.ID == accountID {
			owned = true
			break
		}
	}
	if !owned {
		return xe.ErrAccountNotFound
	}

	result, err := h.syncService.SyncAccount(ctx, accountID)
	if err != nil {
		h.logger.Error("manual sync failed",
			zap.String("account_id", accountID),
			zap.Error(err))
		if result != nil {
			// 半途失败也把计数带回给调用方
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"error":  err.Error(),
				"result": result,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// GetStatus 获取定时同步状态
// GET /api/sync/status
func (h *SyncHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// RegisterRoutes 注册路由
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	sync := g.Group("/sync")

	sync.POST("/accounts/:id", h.TriggerSync)
	sync.GET("/status", h.GetStatus)
}
