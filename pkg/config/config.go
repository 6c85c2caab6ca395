package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Valuation    ValuationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Valuation.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GOLDBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"GOLDBUY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOLDBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOLDBUY_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"GOLDBUY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GOLDBUY_DB_DSN"`
	Driver string `envconfig:"GOLDBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GOLDBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"GOLDBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOLDBUY_DB_USER"`
	LegacyPassword string `envconfig:"GOLDBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOLDBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOLDBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GOLDBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOLDBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOLDBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOLDBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// RedisConfig is optional; idempotency replay is disabled when neither URL nor address is set.
type RedisConfig struct {
	URL          string        `envconfig:"GOLDBUY_REDIS_URL"`
	Address      string        `envconfig:"GOLDBUY_REDIS_ADDR"`
	Password     string        `envconfig:"GOLDBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOLDBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOLDBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOLDBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOLDBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOLDBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOLDBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GOLDBUY_AUTO_MIGRATE" default:"false"`
}

type LedgerConfig struct {
	OverpayTolerance decimal.Decimal `envconfig:"GOLDBUY_LEDGER_OVERPAY_TOLERANCE" default:"1.00"`
}

func (l LedgerConfig) validate() error {
	if l.OverpayTolerance.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvLedgerOverpayTolerance)
	}
	return nil
}

type ValuationConfig struct {
	DefaultRounding string `envconfig:"GOLDBUY_VALUATION_DEFAULT_ROUNDING" default:"nearest"`
}

// Rounding returns the parsed default rounding rule.
func (v ValuationConfig) Rounding() enums.RoundingMode {
	mode, err := enums.ParseRoundingMode(strings.ToLower(strings.TrimSpace(v.DefaultRounding)))
	if err != nil {
		return enums.RoundingNearest
	}
	return mode
}

func (v ValuationConfig) validate() error {
	if _, err := enums.ParseRoundingMode(strings.ToLower(strings.TrimSpace(v.DefaultRounding))); err != nil {
		return fmt.Errorf("%s: %w", EnvValuationDefaultRounding, err)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
