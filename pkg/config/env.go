package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCartStore       = "STOREFRONT_CART_STORE"
	EnvCartDeliveryFee = "STOREFRONT_CART_DELIVERY_FEE"

	EnvUseSQLite = "STOREFRONT_USE_SQLITE"

	EnvStripeAPIKey = "STOREFRONT_STRIPE_API_KEY"
	EnvStripeSecret = "STOREFRONT_STRIPE_SECRET"

	defaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
