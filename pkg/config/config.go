package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Designer   DesignerConfig
	OpenRouter OpenRouterConfig
	Razorpay   RazorpayConfig
	Cron       CronConfig
	Flags      FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KARTLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"KARTLANE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KARTLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KARTLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"KARTLANE_DB_DSN"`

	Host     string `envconfig:"KARTLANE_DB_HOST"`
	Port     int    `envconfig:"KARTLANE_DB_PORT" default:"5432"`
	User     string `envconfig:"KARTLANE_DB_USER"`
	Password string `envconfig:"KARTLANE_DB_PASSWORD"`
	Name     string `envconfig:"KARTLANE_DB_NAME"`
	SSLMode  string `envconfig:"KARTLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KARTLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KARTLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KARTLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KARTLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from discrete host settings when one was not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either KARTLANE_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KARTLANE_REDIS_URL"`
	Address      string        `envconfig:"KARTLANE_REDIS_ADDR"`
	Password     string        `envconfig:"KARTLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"KARTLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KARTLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KARTLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KARTLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KARTLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KARTLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KARTLANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KARTLANE_JWT_ISSUER" default:"kartlane"`
	ExpirationMinutes int    `envconfig:"KARTLANE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type DesignerConfig struct {
	TokenValidityDays  int           `envconfig:"KARTLANE_DESIGNER_TOKEN_VALIDITY_DAYS" default:"90"`
	PendingPurchaseTTL time.Duration `envconfig:"KARTLANE_DESIGNER_PENDING_PURCHASE_TTL" default:"24h"`
}

// TokenValidity returns how long freshly purchased tokens remain usable.
func (d DesignerConfig) TokenValidity() time.Duration {
	days := d.TokenValidityDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}

type OpenRouterConfig struct {
	APIKey  string        `envconfig:"KARTLANE_OPENROUTER_API_KEY"`
	BaseURL string        `envconfig:"KARTLANE_OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Model   string        `envconfig:"KARTLANE_OPENROUTER_MODEL" default:"anthropic/claude-3.5-sonnet"`
	Timeout time.Duration `envconfig:"KARTLANE_OPENROUTER_TIMEOUT" default:"45s"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"KARTLANE_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"KARTLANE_RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"KARTLANE_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout   time.Duration `envconfig:"KARTLANE_RAZORPAY_TIMEOUT" default:"15s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KARTLANE_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"KARTLANE_CRON_LOCK_KEY" default:"kl:cron:lock"`
	LockTTL  time.Duration `envconfig:"KARTLANE_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KARTLANE_AUTO_MIGRATE" default:"false"`
}
