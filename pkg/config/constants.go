package config

const (
	EnvPrefix = "GOLDBUY"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "GOLDBUY_DB_DSN"
	EnvDBHost = "GOLDBUY_DB_HOST"
	EnvDBUser = "GOLDBUY_DB_USER"
	EnvDBName = "GOLDBUY_DB_NAME"

	EnvLedgerOverpayTolerance   = "GOLDBUY_LEDGER_OVERPAY_TOLERANCE"
	EnvValuationDefaultRounding = "GOLDBUY_VALUATION_DEFAULT_ROUNDING"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
