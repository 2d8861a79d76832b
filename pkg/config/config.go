package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Costing      CostingConfig
	Inventory    InventoryConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KITCHENPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"KITCHENPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KITCHENPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KITCHENPOS_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"KITCHENPOS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KITCHENPOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KITCHENPOS_DB_DSN"`
	Driver string `envconfig:"KITCHENPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KITCHENPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"KITCHENPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KITCHENPOS_DB_USER"`
	LegacyPassword string `envconfig:"KITCHENPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KITCHENPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KITCHENPOS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"KITCHENPOS_SQLITE_PATH" default:"kitchenpos.db"`

	MaxOpenConns    int           `envconfig:"KITCHENPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KITCHENPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KITCHENPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KITCHENPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the connection targets the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"KITCHENPOS_REDIS_URL"`
	Address      string        `envconfig:"KITCHENPOS_REDIS_ADDR"`
	Password     string        `envconfig:"KITCHENPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KITCHENPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KITCHENPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KITCHENPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KITCHENPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KITCHENPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KITCHENPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KITCHENPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KITCHENPOS_AUTO_MIGRATE" default:"false"`
}

// CostingConfig holds the settings consumed by the recipe costing calculator.
type CostingConfig struct {
	AvgHourlyLaborCost decimal.Decimal `envconfig:"KITCHENPOS_COSTING_AVG_HOURLY_LABOR_COST" default:"0"`
}

// InventoryConfig holds the stock classification thresholds.
type InventoryConfig struct {
	LowStockRatio            decimal.Decimal `envconfig:"KITCHENPOS_INVENTORY_LOW_STOCK_RATIO" default:"0.5"`
	CriticalStockRatio       decimal.Decimal `envconfig:"KITCHENPOS_INVENTORY_CRITICAL_STOCK_RATIO" default:"0.25"`
	CriticalProducibleBuffer int64           `envconfig:"KITCHENPOS_INVENTORY_CRITICAL_PRODUCIBLE_BUFFER" default:"3"`
	ProductLowStockThreshold int             `envconfig:"KITCHENPOS_INVENTORY_PRODUCT_LOW_STOCK_THRESHOLD" default:"5"`
}

func (i InventoryConfig) validate() error {
	if i.CriticalStockRatio.GreaterThan(i.LowStockRatio) {
		return fmt.Errorf("%s must not exceed %s", EnvInventoryCriticalRatio, EnvInventoryLowRatio)
	}
	if i.CriticalProducibleBuffer < 0 {
		return fmt.Errorf("%s must be >= 0", EnvInventoryCriticalBuffer)
	}
	return nil
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"KITCHENPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"KITCHENPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"KITCHENPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	SalesChannel   string `envconfig:"KITCHENPOS_OUTBOX_SALES_CHANNEL" default:"kitchenpos.sales"`
	StockChannel   string `envconfig:"KITCHENPOS_OUTBOX_STOCK_CHANNEL" default:"kitchenpos.stock"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
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

// MaintenanceConfig drives the recost worker.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"KITCHENPOS_MAINTENANCE_INTERVAL" default:"6h"`
	OutboxRetentionDays int           `envconfig:"KITCHENPOS_MAINTENANCE_OUTBOX_RETENTION_DAYS" default:"30"`
}
