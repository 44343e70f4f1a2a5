package app

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/uniedit/payments/internal/module/account"
	"github.com/uniedit/payments/internal/module/payment"
	"github.com/uniedit/payments/internal/shared/auth"
	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/events"
	"github.com/uniedit/payments/internal/shared/logger"
	"github.com/uniedit/payments/internal/shared/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config         *config.Config
	DB             *gorm.DB
	Redis          goredis.UniversalClient
	Logger         *logger.Logger
	ZapLogger      *zap.Logger
	Metrics        *metrics.Metrics
	EventBus       *events.Bus
	TokenValidator *auth.JWTValidator

	// Payment HTTP Handlers
	PaymentHandler *payment.Handler
	WebhookHandler *payment.WebhookHandler

	// Account
	AccountHandler *account.Handler
	AccountEvents  *account.EventHandler
}
