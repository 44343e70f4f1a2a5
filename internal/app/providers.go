package app

import (
	"context"
	"net/http"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/uniedit/payments/internal/module/account"
	"github.com/uniedit/payments/internal/module/payment"
	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/gateway"
	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/auth"
	"github.com/uniedit/payments/internal/shared/cache"
	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/database"
	"github.com/uniedit/payments/internal/shared/events"
	"github.com/uniedit/payments/internal/shared/httpclient"
	"github.com/uniedit/payments/internal/shared/logger"
	"github.com/uniedit/payments/internal/shared/metrics"
	"github.com/uniedit/payments/internal/shared/storage"
)

const asyncWalletSubject = "Account credits"

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideLogger,
	ProvideZapLogger,
	ProvideMetrics,
	ProvideEventBus,
	ProvideTokenValidator,
)

// ProvideDatabase creates a database connection and closes it on cleanup.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis only backs request
// idempotency, so a failed connection is logged and tolerated.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without idempotency cache", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideLogger creates the HTTP edge logger.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return zapLog, func() { _ = zapLog.Sync() }, nil
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideMetrics creates a metrics instance on the default registry.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("payments", nil)
}

// ProvideEventBus creates the in-process event bus.
func ProvideEventBus(zapLog *zap.Logger) *events.Bus {
	return events.NewBus(zapLog)
}

// ProvideTokenValidator creates the bearer token validator.
func ProvideTokenValidator(cfg *config.Config) *auth.JWTValidator {
	return auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
}

// ===== Account Providers =====

// AccountSet provides account module dependencies.
var AccountSet = wire.NewSet(
	account.NewRepository,
	ProvideAccountService,
	wire.Bind(new(account.ServiceInterface), new(*account.Service)),
	account.NewHandler,
	account.NewEventHandler,
)

// ProvideAccountService creates the account service.
func ProvideAccountService(repo account.Repository, zapLog *zap.Logger) *account.Service {
	return account.NewService(repo, zapLog.Named("account"))
}

// ===== Payment Providers =====

// PaymentSet provides payment module dependencies.
var PaymentSet = wire.NewSet(
	payment.NewRepository,
	ProvideAsyncWallet,
	ProvideGateways,
	ProvideCardWebhook,
	ProvideArchiver,
	ProvideOrchestrator,
	payment.NewHandler,
	ProvideWebhookHandler,
)

// ProvideAsyncWallet creates the async wallet adapter, or nil when no
// notification verifier is configured.
func ProvideAsyncWallet(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, zapLog *zap.Logger) (*gateway.AsyncWalletAdapter, error) {
	alipay := cfg.Alipay

	var verifiers []verifier.Verifier
	if alipay.MD5Key != "" || alipay.AlipayPublicKey != "" {
		verifiers = append(verifiers, verifier.NewSignatureVerifier(alipay.MD5Key, alipay.AlipayPublicKey))
	}
	if len(verifiers) == 0 {
		return nil, nil
	}
	if alipay.VerifyNotifyID && alipay.Partner != "" {
		verifiers = append(verifiers, verifier.NewNotifyIDVerifier(httpClient, alipay.GatewayURL, alipay.Partner))
	}

	var payer gateway.PagePayer
	if alipay.Enabled() {
		p, err := gateway.NewAlipayPagePay(alipay.AppID, alipay.PrivateKey, alipay.IsProd, alipay.NotifyURL, alipay.ReturnURL)
		if err != nil {
			return nil, err
		}
		payer = p
	}

	log := zapLog.Named("alipay")
	breaker := gateway.NewBreaker(domain.GatewayAlipay, cfg.Breaker, m, log)
	return gateway.NewAsyncWalletAdapter(payer, verifier.AllOf(verifiers...), breaker, asyncWalletSubject, log), nil
}

// ProvideGateways registers an adapter for every configured gateway.
func ProvideGateways(cfg *config.Config, httpClient *http.Client, async *gateway.AsyncWalletAdapter, m *metrics.Metrics, zapLog *zap.Logger) (*gateway.Registry, error) {
	var adapters []gateway.Adapter

	if cfg.Stripe.Enabled() {
		log := zapLog.Named("stripe")
		adapters = append(adapters, gateway.NewCardAdapter(
			gateway.NewStripeCardNetwork(cfg.Stripe.SecretKey, httpClient),
			gateway.NewBreaker(domain.GatewayStripe, cfg.Breaker, m, log),
			log,
		))
	}

	if cfg.PayPal.Enabled() {
		checkout, err := gateway.NewPayPalCheckout(cfg.PayPal.ClientID, cfg.PayPal.Secret, cfg.PayPal.IsProd, cfg.PayPal.BrandName)
		if err != nil {
			return nil, err
		}
		log := zapLog.Named("paypal")
		adapters = append(adapters, gateway.NewRedirectWalletAdapter(
			checkout,
			gateway.NewBreaker(domain.GatewayPayPal, cfg.Breaker, m, log),
			cfg.PayPal.ReturnURL,
			cfg.PayPal.CancelURL,
			log,
		))
	}

	if async != nil {
		adapters = append(adapters, async)
	}

	return gateway.NewRegistry(adapters...), nil
}

// ProvideCardWebhook creates the card webhook parser, or nil without a secret.
func ProvideCardWebhook(cfg *config.Config) *gateway.StripeWebhookParser {
	if cfg.Stripe.WebhookSecret == "" {
		return nil
	}
	return gateway.NewStripeWebhookParser(cfg.Stripe.WebhookSecret)
}

// ProvideArchiver creates the raw notification archive, or nil when disabled.
func ProvideArchiver(cfg *config.Config, httpClient *http.Client) (payment.Archiver, error) {
	if !cfg.Archive.Enabled() {
		return nil, nil
	}
	archive, err := storage.NewS3Archive(context.Background(), cfg.Archive, httpClient)
	if err != nil {
		return nil, err
	}
	return archive, nil
}

// ProvideOrchestrator creates the payment orchestrator. Optional collaborators
// are passed as untyped nils so the orchestrator can detect them.
func ProvideOrchestrator(
	cfg *config.Config,
	repo payment.Repository,
	gateways *gateway.Registry,
	async *gateway.AsyncWalletAdapter,
	cardHook *gateway.StripeWebhookParser,
	credits *account.Service,
	bus *events.Bus,
	archive payment.Archiver,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) *payment.Orchestrator {
	var receiver payment.NotificationReceiver
	if async != nil {
		receiver = async
	}
	var parser payment.CardWebhookParser
	if cardHook != nil {
		parser = cardHook
	}
	return payment.NewOrchestrator(repo, gateways, receiver, parser, credits, bus, archive, m, cfg.Payments, zapLog.Named("payment"))
}

// ProvideWebhookHandler creates the gateway notification handler.
func ProvideWebhookHandler(orchestrator *payment.Orchestrator, zapLog *zap.Logger) *payment.WebhookHandler {
	return payment.NewWebhookHandler(orchestrator, zapLog.Named("webhook"))
}

// AppSet is the full provider set.
var AppSet = wire.NewSet(
	InfraSet,
	AccountSet,
	PaymentSet,
)
