package config

const (
	EnvPrefix = "LEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "LEDGER_APP_ENV"
	EnvPort         = "LEDGER_APP_PORT"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
	EnvLogWarnStack = "LEDGER_LOG_WARN_STACK"

	EnvDBDriver = "LEDGER_DB_DRIVER"
	EnvDBDSN    = "LEDGER_DB_DSN"
	EnvDBPath   = "LEDGER_DB_PATH"

	EnvRedisURL = "LEDGER_REDIS_URL"

	EnvVATRate              = "LEDGER_FISCAL_VAT_RATE"
	EnvWithholdingRate      = "LEDGER_FISCAL_WITHHOLDING_RATE"
	EnvDefaultPaymentDays   = "LEDGER_FISCAL_DEFAULT_PAYMENT_DAYS"
	EnvMonetaryDecimals     = "LEDGER_FISCAL_MONETARY_DECIMALS"
	EnvStrictCounterparties = "LEDGER_FISCAL_STRICT_COUNTERPARTIES"
	EnvCronInterval         = "LEDGER_CRON_INTERVAL"
	EnvCronLockKey          = "LEDGER_CRON_LOCK_KEY"
	EnvFeatureAutoMigrate   = "LEDGER_AUTO_MIGRATE"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
