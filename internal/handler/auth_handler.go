package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zhangjialei/tradebook/internal/service"
	"go.uber.org/zap"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	logger      *zap.Logger
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(logger *zap.Logger, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "请求参数错误",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "用户名和密码不能为空",
		})
	}

	ip := c.RealIP()

	resp, err := h.authService.Login(ctx, req, ip)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error": "用户名或密码错误",
			})
		}
		if errors.Is(err, service.ErrUserNotActive) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"error": "用户已被禁用",
			})
		}

		h.logger.Error("login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "登录失败，请稍后重试",
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// GetCurrentUser 获取当前用户信息
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Get("user_id").(string)

	user, err := h.authService.GetCurrentUser(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get current user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "获取用户信息失败",
		})
	}

	return c.JSON(http.StatusOK, user)
}

// RegisterRoutes 注册路由
func (h *AuthHandler) RegisterRoutes(public *echo.Group, authed *echo.Group) {
	public.POST("/auth/login", h.Login)
	authed.GET("/auth/me", h.GetCurrentUser)
}
