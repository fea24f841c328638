package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

const (
	PaymentProviderSandbox = "sandbox"
	PaymentProviderSquare  = "square"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBDriver        = "STOREFRONT_DB_DRIVER"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvPaymentProvider = "STOREFRONT_PAYMENT_PROVIDER"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
