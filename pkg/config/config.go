package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "tomashops"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.FeeRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOMASHOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"TOMASHOPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TOMASHOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOMASHOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TOMASHOPS_DB_DSN"`

	Host     string `envconfig:"TOMASHOPS_DB_HOST"`
	Port     int    `envconfig:"TOMASHOPS_DB_PORT" default:"5432"`
	User     string `envconfig:"TOMASHOPS_DB_USER"`
	Password string `envconfig:"TOMASHOPS_DB_PASSWORD"`
	Name     string `envconfig:"TOMASHOPS_DB_NAME"`
	SSLMode  string `envconfig:"TOMASHOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOMASHOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOMASHOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOMASHOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOMASHOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("either TOMASHOPS_DB_DSN or TOMASHOPS_DB_HOST, TOMASHOPS_DB_USER, TOMASHOPS_DB_NAME are required")
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TOMASHOPS_REDIS_URL" required:"true"`
	DB           int           `envconfig:"TOMASHOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOMASHOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOMASHOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOMASHOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOMASHOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOMASHOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"TOMASHOPS_STRIPE_API_KEY" required:"true"`
	WebhookSecret  string        `envconfig:"TOMASHOPS_STRIPE_WEBHOOK_SECRET" required:"true"`
	Env            string        `envconfig:"TOMASHOPS_STRIPE_ENV" default:"test"`
	RequestTimeout time.Duration `envconfig:"TOMASHOPS_STRIPE_REQUEST_TIMEOUT" default:"20s"`

	OnboardingReturnURL  string `envconfig:"TOMASHOPS_STRIPE_ONBOARDING_RETURN_URL" default:"https://tomashops.com/sell"`
	OnboardingRefreshURL string `envconfig:"TOMASHOPS_STRIPE_ONBOARDING_REFRESH_URL" default:"https://tomashops.com/sell"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	// PlatformFeeRate is the marketplace cut as a decimal fraction, e.g.
	// "0.05" for 5%. Some deployments run at "0".
	PlatformFeeRate string `envconfig:"TOMASHOPS_PLATFORM_FEE_RATE" default:"0.05"`
	Currency        string `envconfig:"TOMASHOPS_CHECKOUT_CURRENCY" default:"usd"`
}

// FeeRate parses the configured platform fee rate and validates its range.
func (c CheckoutConfig) FeeRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.PlatformFeeRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid TOMASHOPS_PLATFORM_FEE_RATE %q: %w", c.PlatformFeeRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("TOMASHOPS_PLATFORM_FEE_RATE %q out of range [0,1]", c.PlatformFeeRate)
	}
	return rate, nil
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"TOMASHOPS_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TOMASHOPS_AUTO_MIGRATE" default:"false"`
}
