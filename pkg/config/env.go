package config

const (
	EnvPrefix = "KITCHENPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "KITCHENPOS_APP_ENV"
	EnvPort     = "KITCHENPOS_APP_PORT"
	EnvLogLevel = "KITCHENPOS_LOG_LEVEL"

	EnvDBDSN  = "KITCHENPOS_DB_DSN"
	EnvDBHost = "KITCHENPOS_DB_HOST"
	EnvDBUser = "KITCHENPOS_DB_USER"
	EnvDBName = "KITCHENPOS_DB_NAME"

	EnvRedisURL  = "KITCHENPOS_REDIS_URL"
	EnvUseSQLite = "KITCHENPOS_USE_SQLITE"

	EnvLaborCost                = "KITCHENPOS_COSTING_AVG_HOURLY_LABOR_COST"
	EnvInventoryLowRatio        = "KITCHENPOS_INVENTORY_LOW_STOCK_RATIO"
	EnvInventoryCriticalRatio   = "KITCHENPOS_INVENTORY_CRITICAL_STOCK_RATIO"
	EnvInventoryCriticalBuffer  = "KITCHENPOS_INVENTORY_CRITICAL_PRODUCIBLE_BUFFER"
	EnvInventoryProductLowStock = "KITCHENPOS_INVENTORY_PRODUCT_LOW_STOCK_THRESHOLD"
)

// legacyDBEnvVars must all be present when no DSN is supplied.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
