package config

const EnvPrefix = "SHOPDECK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	SearchStrategySubstring = "substring"
	SearchStrategyRegex     = "regex"
)

// Environment variable names referenced in error messages and tests.
const (
	EnvAppEnv     = "SHOPDECK_APP_ENV"
	EnvPort       = "SHOPDECK_APP_PORT"
	EnvDBDSN      = "SHOPDECK_DB_DSN"
	EnvRedisURL   = "SHOPDECK_REDIS_URL"
	EnvJWTSecret  = "SHOPDECK_JWT_SECRET"
	EnvJWTIssuer  = "SHOPDECK_JWT_ISSUER"
	EnvJWTExpMins = "SHOPDECK_JWT_EXPIRATION_MINUTES"
)
