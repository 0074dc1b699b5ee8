package config

// EnvPrefix namespaces every variable the service reads.
const EnvPrefix = "KICKFINDERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "KICKFINDERZ_APP_ENV"
	EnvPort        = "KICKFINDERZ_APP_PORT"
	EnvDBDSN       = "KICKFINDERZ_DB_DSN"
	EnvDBHost      = "KICKFINDERZ_DB_HOST"
	EnvDBUser      = "KICKFINDERZ_DB_USER"
	EnvDBName      = "KICKFINDERZ_DB_NAME"
	EnvDBPassword  = "KICKFINDERZ_DB_PASSWORD"
	EnvRedisURL    = "KICKFINDERZ_REDIS_URL"
	EnvJWTSecret   = "KICKFINDERZ_JWT_SECRET"
	EnvJWTIssuer   = "KICKFINDERZ_JWT_ISSUER"
	EnvJWTExpMins  = "KICKFINDERZ_JWT_EXPIRATION_MINUTES"
	EnvCartTTL     = "KICKFINDERZ_CART_CACHE_TTL"
	EnvProcessor   = "KICKFINDERZ_ORDER_PROCESSOR"
	EnvOrdersTopic = "KICKFINDERZ_PUBSUB_ORDERS_TOPIC"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
