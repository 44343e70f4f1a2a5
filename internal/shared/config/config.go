package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	PayPal     PayPalConfig     `mapstructure:"paypal"`
	Alipay     AlipayConfig     `mapstructure:"alipay"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Payments   PaymentsConfig   `mapstructure:"payments"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds bearer token validation settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// HTTPClientConfig holds the outbound HTTP client tuning.
type HTTPClientConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
}

// RateLimitConfig holds request de-duplication settings.
type RateLimitConfig struct {
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StripeConfig holds card gateway configuration.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// Enabled reports whether the card gateway is configured.
func (c *StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

// PayPalConfig holds redirect wallet configuration.
type PayPalConfig struct {
	ClientID  string `mapstructure:"client_id"`
	Secret    string `mapstructure:"secret"`
	IsProd    bool   `mapstructure:"is_prod"`
	ReturnURL string `mapstructure:"return_url"`
	CancelURL string `mapstructure:"cancel_url"`
	BrandName string `mapstructure:"brand_name"`
}

// Enabled reports whether the redirect wallet is configured.
func (c *PayPalConfig) Enabled() bool {
	return c.ClientID != ""
}

// AlipayConfig holds async wallet configuration.
type AlipayConfig struct {
	AppID           string `mapstructure:"app_id"`
	PrivateKey      string `mapstructure:"private_key"`
	AlipayPublicKey string `mapstructure:"alipay_public_key"`
	Partner         string `mapstructure:"partner"`
	MD5Key          string `mapstructure:"md5_key"`
	IsProd          bool   `mapstructure:"is_prod"`
	NotifyURL       string `mapstructure:"notify_url"`
	ReturnURL       string `mapstructure:"return_url"`
	GatewayURL      string `mapstructure:"gateway_url"`
	VerifyNotifyID  bool   `mapstructure:"verify_notify_id"`
}

// Enabled reports whether the async wallet can create page payments.
func (c *AlipayConfig) Enabled() bool {
	return c.AppID != "" && c.PrivateKey != ""
}

// BreakerConfig holds gateway circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	MaxHalfOpen      uint32        `mapstructure:"max_half_open"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// ArchiveConfig holds the S3-compatible bucket used for raw notification archiving.
type ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// Enabled reports whether archiving is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// PaymentsConfig holds payment lifecycle settings.
type PaymentsConfig struct {
	DefaultCredits    int64  `mapstructure:"default_credits"`
	ConfirmURL        string `mapstructure:"confirm_url"`
	NewPaymentURL     string `mapstructure:"new_payment_url"`
	BillingAccountURL string `mapstructure:"billing_account_url"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/payments")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("PAYMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecretOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applySecretOverrides reads sensitive values that are usually injected by the environment.
func applySecretOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"PAYMENTS_JWT_SECRET", &cfg.Auth.JWTSecret},
		{"PAYMENTS_DB_PASSWORD", &cfg.Database.Password},
		{"PAYMENTS_REDIS_PASSWORD", &cfg.Redis.Password},
		{"PAYMENTS_STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey},
		{"PAYMENTS_STRIPE_WEBHOOK_SECRET", &cfg.Stripe.WebhookSecret},
		{"PAYMENTS_PAYPAL_SECRET", &cfg.PayPal.Secret},
		{"PAYMENTS_ALIPAY_PRIVATE_KEY", &cfg.Alipay.PrivateKey},
		{"PAYMENTS_ALIPAY_MD5_KEY", &cfg.Alipay.MD5Key},
		{"PAYMENTS_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey},
	}
	for _, o := range overrides {
		if value := os.Getenv(o.env); value != "" {
			*o.target = value
		}
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Payments.DefaultCredits <= 0 {
		return fmt.Errorf("payments.default_credits must be positive, got %d", c.Payments.DefaultCredits)
	}
	if c.PayPal.ClientID != "" && c.PayPal.Secret == "" {
		return errors.New("paypal.secret is required when paypal.client_id is set")
	}
	if c.Alipay.AppID != "" && c.Alipay.PrivateKey == "" {
		return errors.New("alipay.private_key is required when alipay.app_id is set")
	}
	if c.Archive.Bucket != "" && (c.Archive.AccessKeyID == "" || c.Archive.SecretAccessKey == "") {
		return errors.New("archive credentials are required when archive.bucket is set")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "payments")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.issuer", "payments")

	// HTTP client
	v.SetDefault("http_client.timeout", 15*time.Second)
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 10)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)

	v.SetDefault("rate_limit.idempotency_ttl", 24*time.Hour)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Gateways
	v.SetDefault("paypal.brand_name", "Payments")
	v.SetDefault("alipay.gateway_url", "https://mapi.alipay.com/gateway.do")

	// Breaker
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.max_half_open", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 30*time.Second)

	// Archive
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.prefix", "notifications")

	// Payments
	v.SetDefault("payments.default_credits", 1)
	v.SetDefault("payments.confirm_url", "/payments/{id}")
	v.SetDefault("payments.new_payment_url", "/payments/new")
	v.SetDefault("payments.billing_account_url", "/account")
}
