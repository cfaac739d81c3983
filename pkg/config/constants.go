package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "buzz"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv    = "BUZZ_APP_ENV"
	EnvPort      = "BUZZ_APP_PORT"
	EnvDBDSN     = "BUZZ_DB_DSN"
	EnvRedisURL  = "BUZZ_REDIS_URL"
	EnvJWTSecret = "BUZZ_JWT_SECRET"
	EnvJWTIssuer = "BUZZ_JWT_ISSUER"
)
