package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Pricelist PricelistConfig
	Sync      SyncConfig
	ProductDB ProductDBConfig
	Cache     CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"600s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"mtg-price-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// PricelistConfig holds Card Kingdom pricelist cache settings.
type PricelistConfig struct {
	Endpoint    string        `envconfig:"PRICELIST_ENDPOINT" default:"https://api.cardkingdom.com/api/v2/pricelist"`
	UserAgent   string        `envconfig:"PRICELIST_USER_AGENT" default:"Mozilla/5.0 (compatible; MTGPriceAPI/1.0)"`
	CacheDir    string        `envconfig:"PRICELIST_CACHE_DIR" default:"./data/ck-cache"`
	MaxAge      time.Duration `envconfig:"PRICELIST_MAX_AGE" default:"24h"`
	HTTPTimeout time.Duration `envconfig:"PRICELIST_HTTP_TIMEOUT" default:"2m"`
}

// SyncConfig holds bulk price sync settings.
type SyncConfig struct {
	USDToSGDRate float64       `envconfig:"SYNC_USD_TO_SGD_RATE" default:"1.3"`
	PageSize     int           `envconfig:"SYNC_PAGE_SIZE" default:"100"`
	Interval     time.Duration `envconfig:"SYNC_INTERVAL" default:"24h"`
	RunOnStart   bool          `envconfig:"SYNC_RUN_ON_START" default:"false"`
}

// ProductDBConfig holds product store settings.
type ProductDBConfig struct {
	Type string `envconfig:"PRODUCT_DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"PRODUCT_DB_PATH" default:"./data/products.db"`
	// MySQL settings
	Host     string `envconfig:"PRODUCT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PRODUCT_DB_PORT" default:"3306"`
	Name     string `envconfig:"PRODUCT_DB_NAME" default:"mtgstore"`
	User     string `envconfig:"PRODUCT_DB_USER" default:"root"`
	Password string `envconfig:"PRODUCT_DB_PASS" default:""`
}

// CacheConfig holds price-lookup cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name.
func (p *ProductDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
