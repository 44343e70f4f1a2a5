package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/uniedit/payments/cmd/server/docs" // swagger docs
	"github.com/uniedit/payments/internal/module/account"
	"github.com/uniedit/payments/internal/module/payment/entity"
	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/middleware"
)

// App represents the application.
type App struct {
	config  *config.Config
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := migrate(deps); err != nil {
			cleanup()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return newApp(cfg, deps, cleanup), nil
}

func newApp(cfg *config.Config, deps *Dependencies, cleanup func()) *App {
	if cleanup == nil {
		cleanup = func() {}
	}
	a := &App{
		config:  cfg,
		deps:    deps,
		cleanup: cleanup,
	}

	a.registerEventHandlers()
	a.router = a.setupRouter()
	a.registerRoutes()
	return a
}

func migrate(deps *Dependencies) error {
	return deps.DB.AutoMigrate(
		&entity.PaymentEntity{},
		&entity.NotificationEntity{},
		&account.Account{},
	)
}

// registerEventHandlers wires domain event subscribers.
func (a *App) registerEventHandlers() {
	if a.deps.AccountEvents != nil {
		a.deps.EventBus.Register(a.deps.AccountEvents)
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if a.deps.Metrics != nil {
		r.Use(middleware.Metrics(a.deps.Metrics))
	}

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

func (a *App) health(c *gin.Context) {
	if a.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := a.deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	// Gateway callbacks and notifications authenticate by signature or token.
	publicRouter := v1.Group("")
	a.deps.PaymentHandler.RegisterRoutes(publicRouter)
	a.deps.WebhookHandler.RegisterRoutes(publicRouter)

	protectedRouter := v1.Group("")
	protectedRouter.Use(middleware.RequireAuth(a.deps.TokenValidator))
	protectedRouter.Use(middleware.Idempotency(a.deps.Redis, middleware.IdempotencyConfig{
		TTL: a.config.RateLimit.IdempotencyTTL,
	}))

	a.deps.PaymentHandler.RegisterProtectedRoutes(protectedRouter)
	a.deps.AccountHandler.RegisterRoutes(protectedRouter)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases resources.
func (a *App) Stop() {
	if a.deps.ZapLogger != nil {
		a.deps.ZapLogger.Info("stopping application", zap.String("address", a.config.Server.Address))
	}
	a.cleanup()
}
