package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Catalog  CatalogConfig
	Shipping ShippingConfig
	Checkout CheckoutConfig
	Session  SessionConfig
	Redis    RedisConfig
	DB       DBConfig
	Payment  PaymentConfig
	Square   SquareConfig
	Offline  OfflineConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string        `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string        `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string        `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	StaticDir    string        `envconfig:"STOREFRONT_STATIC_DIR"`
	BrandName    string        `envconfig:"STOREFRONT_BRAND_NAME" default:"Mawewe"`
	CORSOrigins  []string      `envconfig:"STOREFRONT_CORS_ORIGINS"`
	RateLimit    int           `envconfig:"STOREFRONT_PAYMENT_RATE_LIMIT" default:"20"`
	RateWindow   time.Duration `envconfig:"STOREFRONT_PAYMENT_RATE_WINDOW" default:"1m"`
	ShutdownWait time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points at the catalog document; Source is a file path or an http(s) URL.
type CatalogConfig struct {
	Source      string        `envconfig:"STOREFRONT_CATALOG_SOURCE" default:"data/products.json"`
	PublicPath  string        `envconfig:"STOREFRONT_CATALOG_PUBLIC_PATH" default:"/data/products.json"`
	LoadTimeout time.Duration `envconfig:"STOREFRONT_CATALOG_LOAD_TIMEOUT" default:"10s"`
}

// ShippingConfig holds the default shipping legs. Amounts are decimal strings so the
// env values never pass through float parsing.
type ShippingConfig struct {
	Cost          string `envconfig:"STOREFRONT_SHIPPING_COST" default:"5.00"`
	FreeThreshold string `envconfig:"STOREFRONT_SHIPPING_FREE_THRESHOLD" default:"50.00"`
	ExpressCost   string `envconfig:"STOREFRONT_SHIPPING_EXPRESS_COST" default:"10.00"`
}

type CheckoutConfig struct {
	ClearOnComplete bool `envconfig:"STOREFRONT_CHECKOUT_CLEAR_ON_COMPLETE" default:"true"`
}

type SessionConfig struct {
	Secret     string        `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"STOREFRONT_SESSION_ISSUER" default:"storefront"`
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"storefront_session"`
	TTL        time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"720h"`
	IdleEvict  time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_EVICT" default:"30m"`
	Secure     bool          `envconfig:"STOREFRONT_SESSION_SECURE_COOKIE" default:"false"`
}

// RedisConfig is optional; with neither URL nor Address set the service keeps
// persisted state in process memory.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	StateTTL     time.Duration `envconfig:"STOREFRONT_REDIS_STATE_TTL" default:"720h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"false"`
}

// IsSQLite reports whether the receipts journal runs on the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type PaymentConfig struct {
	Provider           string        `envconfig:"STOREFRONT_PAYMENT_PROVIDER" default:"sandbox"`
	Currency           string        `envconfig:"STOREFRONT_PAYMENT_CURRENCY" default:"USD"`
	Locale             string        `envconfig:"STOREFRONT_PAYMENT_LOCALE" default:"es_ES"`
	CountryCode        string        `envconfig:"STOREFRONT_PAYMENT_COUNTRY_CODE" default:"EC"`
	ShippingPreference string        `envconfig:"STOREFRONT_PAYMENT_SHIPPING_PREFERENCE" default:"SET_PROVIDED_ADDRESS"`
	Description        string        `envconfig:"STOREFRONT_PAYMENT_DESCRIPTION" default:"Compra en Mawewe"`
	Timeout            time.Duration `envconfig:"STOREFRONT_PAYMENT_TIMEOUT" default:"30s"`
}

func (p PaymentConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Provider)) {
	case PaymentProviderSandbox, PaymentProviderSquare:
		return nil
	default:
		return fmt.Errorf("payment provider must be %q or %q", PaymentProviderSandbox, PaymentProviderSquare)
	}
}

// ProviderName returns the normalized provider identifier.
func (p PaymentConfig) ProviderName() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

type SquareConfig struct {
	AccessToken string `envconfig:"STOREFRONT_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"STOREFRONT_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"STOREFRONT_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type OfflineConfig struct {
	CacheName    string   `envconfig:"STOREFRONT_OFFLINE_CACHE_NAME" default:"mawewe-v1.0"`
	Assets       []string `envconfig:"STOREFRONT_OFFLINE_ASSETS" default:"/,/index.html,/assets/css/styles.css,/assets/js/app.js,/site.webmanifest"`
	BypassHosts  []string `envconfig:"STOREFRONT_OFFLINE_BYPASS_HOSTS" default:"paypal.com,googleapis.com,unsplash.com,squarecdn.com"`
	AssetsMaxAge int      `envconfig:"STOREFRONT_OFFLINE_ASSETS_MAX_AGE" default:"0"`
}

type CronConfig struct {
	Enabled          bool          `envconfig:"STOREFRONT_CRON_ENABLED" default:"true"`
	Interval         time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"1m"`
	LockTTL          time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"50s"`
	ReceiptRetention time.Duration `envconfig:"STOREFRONT_RECEIPT_RETENTION" default:"2160h"`
	// RetentionEvery spaces receipt pruning runs; eviction and sweeps run every tick.
	RetentionEvery time.Duration `envconfig:"STOREFRONT_RECEIPT_RETENTION_EVERY" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
