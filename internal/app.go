package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/zhangjialei/tradebook/internal/config"
	"github.com/zhangjialei/tradebook/internal/handler"
	appmiddleware "github.com/zhangjialei/tradebook/internal/middleware"
	"github.com/zhangjialei/tradebook/internal/models"
	"github.com/zhangjialei/tradebook/internal/service"
	"github.com/zhangjialei/tradebook/internal/telegram"
	"github.com/zhangjialei/tradebook/pkg/nostd"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewTradebookApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewTradebookApp() orz.Application {
	return &TradebookApp{}
}

var _ orz.Application = (*TradebookApp)(nil)

type AppComponents struct {
	AuthHandler    *handler.AuthHandler
	JournalHandler *handler.JournalHandler
	SyncHandler    *handler.SyncHandler

	AuthService      *service.AuthService
	AccountService   *service.AccountService
	JournalService   *service.JournalService
	ReconcileService *service.ReconcileService
	SyncService      *service.SyncService
	SyncScheduler    *service.SyncScheduler

	Telegram *telegram.Telegram
}

type TradebookApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *TradebookApp) GetComponents() *AppComponents {
	return r.components
}

func (r *TradebookApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.User{}, models.BrokerAccount{},
		models.Fill{}, models.Position{}, models.Trade{}, models.SyncLog{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		authed := api.Group("", appmiddleware.JWTAuth(appmiddleware.JWTAuthConfig{
			AuthService: r.components.AuthService,
			Logger:      logger,
		}))

		r.components.AuthHandler.RegisterRoutes(api, authed)
		r.components.JournalHandler.RegisterRoutes(authed)
		r.components.SyncHandler.RegisterRoutes(authed)
	}

	return nil
}

func (r *TradebookApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Tradebook Trading Journal Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	// 首次启动创建默认账号
	if err := components.AuthService.EnsureDefaultUser(ctx, "admin", "admin123"); err != nil {
		return fmt.Errorf("failed to ensure default user: %w", err)
	}

	if components.Telegram != nil {
		components.Telegram.Start()
	}

	if r.conf.Sync.Enabled {
		logger.Info("scheduled sync enabled, starting scheduler...")
		go func() {
			if err := components.SyncScheduler.Start(ctx); err != nil {
				logger.Error("sync scheduler error", zap.Error(err))
			}
		}()
	} else {
		logger.Info("scheduled sync disabled, manual trigger only")
	}

	return nil
}
