package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Fiscal       FiscalConfig
	Cron         CronConfig
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
	if err := cfg.Fiscal.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEDGER_APP_ENV" default:"dev"`
	Port         string `envconfig:"LEDGER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEDGER_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma-separated allow list for the back-office UI.
	CORSOrigins []string `envconfig:"LEDGER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"LEDGER_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"LEDGER_DB_DSN"`
	// Path is used to build the SQLite DSN when DSN is empty.
	Path        string        `envconfig:"LEDGER_DB_PATH" default:"data/ledger.db"`
	BusyTimeout time.Duration `envconfig:"LEDGER_DB_BUSY_TIMEOUT" default:"5s"`

	MaxOpenConns    int           `envconfig:"LEDGER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LEDGER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded store is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	// URL is optional; without it the scheduler falls back to an in-process lock.
	URL          string        `envconfig:"LEDGER_REDIS_URL"`
	PoolSize     int           `envconfig:"LEDGER_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"LEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDGER_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LEDGER_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// FiscalConfig holds the process-wide tax constants. Values are read once at
// startup and are never reloaded.
type FiscalConfig struct {
	VATRate              string `envconfig:"LEDGER_FISCAL_VAT_RATE" default:"0.19"`
	WithholdingRate      string `envconfig:"LEDGER_FISCAL_WITHHOLDING_RATE" default:"0.1075"`
	DefaultPaymentDays   int    `envconfig:"LEDGER_FISCAL_DEFAULT_PAYMENT_DAYS" default:"30"`
	MonetaryDecimals     int32  `envconfig:"LEDGER_FISCAL_MONETARY_DECIMALS" default:"0"`
	StrictCounterparties bool   `envconfig:"LEDGER_FISCAL_STRICT_COUNTERPARTIES" default:"false"`
}

// Validate checks the fiscal constants for sane ranges.
func (f FiscalConfig) Validate() error {
	vat, err := f.VAT()
	if err != nil {
		return err
	}
	if vat.IsNegative() || vat.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be a fraction in [0,1), got %s", EnvVATRate, f.VATRate)
	}
	withholding, err := f.Withholding()
	if err != nil {
		return err
	}
	if withholding.IsNegative() || withholding.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be a fraction in [0,1), got %s", EnvWithholdingRate, f.WithholdingRate)
	}
	if f.DefaultPaymentDays < 0 {
		return fmt.Errorf("%s cannot be negative", EnvDefaultPaymentDays)
	}
	if f.MonetaryDecimals < 0 || f.MonetaryDecimals > 4 {
		return fmt.Errorf("%s must be between 0 and 4, got %d", EnvMonetaryDecimals, f.MonetaryDecimals)
	}
	return nil
}

// VAT parses the configured VAT rate.
func (f FiscalConfig) VAT() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(f.VATRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvVATRate, err)
	}
	return rate, nil
}

// Withholding parses the configured fee-receipt withholding rate.
func (f FiscalConfig) Withholding() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(f.WithholdingRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvWithholdingRate, err)
	}
	return rate, nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LEDGER_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"LEDGER_CRON_LOCK_KEY" default:"ledger:cron-worker:lock"`
	LockTTL  time.Duration `envconfig:"LEDGER_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEDGER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DriverSQLite:
		if db.DSN != "" {
			return nil
		}
		if db.Path == "" {
			return fmt.Errorf("either %s or %s is required for sqlite", EnvDBDSN, EnvDBPath)
		}
		db.DSN = SQLiteDSN(db.Path, db.BusyTimeout)
		return nil
	case DriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required for postgres", EnvDBDSN)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q (expected %s or %s)", EnvDBDriver, db.Driver, DriverSQLite, DriverPostgres)
	}
}

// SQLiteDSN builds a file DSN whose write transactions start with BEGIN
// IMMEDIATE, so concurrent stock updates are serialized by the store.
func SQLiteDSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds())
}
