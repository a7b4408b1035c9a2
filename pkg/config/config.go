package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Claims      ClaimsConfig
	Cache       CacheConfig
	OTEL        OTELConfig
}

// ServerConfig identifies the running process
type ServerConfig struct {
	Name            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver         string
	AutoMigrate    bool
	MigrationsPath string
}

// ClaimsConfig holds adjudication policy knobs
type ClaimsConfig struct {
	// PriceVarianceThreshold is a fraction: 0.2 allows claims up to 20% off the agreed price.
	PriceVarianceThreshold decimal.Decimal
	DefaultBenefitCode     string
	SideEffectTimeout      time.Duration
}

// CacheConfig holds read-through cache TTLs
type CacheConfig struct {
	LedgerTTLSeconds int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVICE_NAME", "claims-engine")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "claims")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("STORAGE_AUTO_MIGRATE", true)
	v.SetDefault("STORAGE_MIGRATIONS_PATH", "")

	v.SetDefault("CLAIMS_PRICE_VARIANCE_THRESHOLD", "0.2")
	v.SetDefault("CLAIMS_DEFAULT_BENEFIT_CODE", "GENERAL")
	v.SetDefault("CLAIMS_SIDE_EFFECT_TIMEOUT", "5s")

	v.SetDefault("CACHE_LEDGER_TTL_SECONDS", 300)

	v.SetDefault("OTEL_SERVICE_NAME", "claims-engine")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)
}

// Load loads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional
	_ = v.ReadInConfig()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	threshold, err := decimal.NewFromString(strings.TrimSpace(v.GetString("CLAIMS_PRICE_VARIANCE_THRESHOLD")))
	if err != nil {
		return nil, fmt.Errorf("CLAIMS_PRICE_VARIANCE_THRESHOLD: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("ENV"),
		Server: ServerConfig{
			Name:            v.GetString("SERVICE_NAME"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
			AutoMigrate:    v.GetBool("STORAGE_AUTO_MIGRATE"),
			MigrationsPath: v.GetString("STORAGE_MIGRATIONS_PATH"),
		},
		Claims: ClaimsConfig{
			PriceVarianceThreshold: threshold,
			DefaultBenefitCode:     v.GetString("CLAIMS_DEFAULT_BENEFIT_CODE"),
			SideEffectTimeout:      v.GetDuration("CLAIMS_SIDE_EFFECT_TIMEOUT"),
		},
		Cache: CacheConfig{
			LedgerTTLSeconds: v.GetInt("CACHE_LEDGER_TTL_SECONDS"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}
	if c.Claims.PriceVarianceThreshold.IsNegative() {
		return fmt.Errorf("CLAIMS_PRICE_VARIANCE_THRESHOLD must not be negative, got %s", c.Claims.PriceVarianceThreshold)
	}
	if strings.TrimSpace(c.Claims.DefaultBenefitCode) == "" {
		return fmt.Errorf("CLAIMS_DEFAULT_BENEFIT_CODE is required")
	}
	if c.Claims.SideEffectTimeout <= 0 {
		return fmt.Errorf("CLAIMS_SIDE_EFFECT_TIMEOUT must be positive, got %s", c.Claims.SideEffectTimeout)
	}
	if c.Cache.LedgerTTLSeconds < 0 {
		return fmt.Errorf("CACHE_LEDGER_TTL_SECONDS must not be negative, got %d", c.Cache.LedgerTTLSeconds)
	}
	return nil
}

// IsDev reports whether the process runs in development mode
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// MigrationURL returns the postgres:// URL form used by the migration driver
func (c *DatabaseConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
