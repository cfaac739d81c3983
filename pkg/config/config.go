package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Budget       BudgetConfig
	Monitor      MonitorConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	RateLimit    RateLimitConfig
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate aggregates every configuration problem instead of stopping at the
// first one, so a broken deploy surfaces the full list at once.
func (c *Config) Validate() error {
	var err error
	if c.Budget.DefaultWarningThreshold < 0 || c.Budget.DefaultWarningThreshold > 100 {
		err = multierr.Append(err, fmt.Errorf("budget warning threshold must be within [0,100], got %d", c.Budget.DefaultWarningThreshold))
	}
	if c.Budget.DefaultMonthlyBudget.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("default monthly budget must not be negative"))
	}
	if c.Budget.DefaultDailyLimit.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("default daily limit must not be negative"))
	}
	if c.Monitor.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("monitor interval must be positive, got %s", c.Monitor.Interval))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"BUZZ_APP_ENV" required:"true"`
	Port         string `envconfig:"BUZZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUZZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUZZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BUZZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BUZZ_DB_DSN"`
	Driver string `envconfig:"BUZZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BUZZ_DB_HOST"`
	LegacyPort     int    `envconfig:"BUZZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BUZZ_DB_USER"`
	LegacyPassword string `envconfig:"BUZZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"BUZZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"BUZZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUZZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BUZZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BUZZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUZZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.LegacyUser, d.LegacyPassword, d.LegacyHost, d.LegacyPort, d.LegacyName, d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"BUZZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUZZ_REDIS_ADDR"`
	Password     string        `envconfig:"BUZZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUZZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUZZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUZZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUZZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUZZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUZZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BUZZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BUZZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BUZZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// BudgetConfig seeds the settings row on first run. Operators mutate the row
// through the admin API afterwards; these values are never re-applied.
type BudgetConfig struct {
	DefaultMonthlyBudget    decimal.Decimal `envconfig:"BUZZ_BUDGET_DEFAULT_MONTHLY" default:"10000000"`
	DefaultDailyLimit       decimal.Decimal `envconfig:"BUZZ_BUDGET_DEFAULT_DAILY" default:"500000"`
	DefaultWarningThreshold int             `envconfig:"BUZZ_BUDGET_DEFAULT_WARNING_THRESHOLD" default:"80"`
	DefaultAutoBlock        bool            `envconfig:"BUZZ_BUDGET_DEFAULT_AUTO_BLOCK" default:"true"`
}

type MonitorConfig struct {
	Interval time.Duration `envconfig:"BUZZ_MONITOR_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"BUZZ_MONITOR_LOCK_TTL" default:"4m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BUZZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BUZZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BUZZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AlertTopic string `envconfig:"BUZZ_PUBSUB_ALERT_TOPIC"`
}

type RateLimitConfig struct {
	DecideWindow time.Duration `envconfig:"BUZZ_RATE_LIMIT_DECIDE_WINDOW" default:"1m"`
	DecidePerIP  int           `envconfig:"BUZZ_RATE_LIMIT_DECIDE_PER_IP" default:"300"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BUZZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BUZZ_AUTO_MIGRATE" default:"false"`
}
