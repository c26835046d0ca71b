package config

import (
	"fmt"
	"strings"
	"time"

	"shopfront/internal/repositories"

	"github.com/spf13/viper"
)

// Cart persistence backends.
const (
	PersistenceNone     = "none"
	PersistenceMemory   = "memory"
	PersistenceSQLite   = "sqlite"
	PersistencePostgres = "postgres"
	PersistenceRedis    = "redis"
)

// Config is the runtime configuration, read from the environment.
type Config struct {
	AppPort         string
	ProductsAPIURL  string
	HTTPTimeout     time.Duration
	CartPersistence string
	CartSlot        string
	SQLitePath      string
	DatabaseDSN     string
	RedisURL        string
	RabbitMQURL     string
	JWTSecret       string
	LogLevel        string
	Offline         bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("PRODUCTS_API_URL", repositories.DefaultProductsAPI)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("CART_PERSISTENCE", PersistenceMemory)
	v.SetDefault("CART_SLOT", "cart")
	v.SetDefault("SQLITE_PATH", "shopfront.db")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=shopfront port=5432 sslmode=disable")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OFFLINE", false)
}

// Load reads the configuration from v, falling back to defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		ProductsAPIURL:  v.GetString("PRODUCTS_API_URL"),
		HTTPTimeout:     v.GetDuration("HTTP_TIMEOUT"),
		CartPersistence: strings.ToLower(v.GetString("CART_PERSISTENCE")),
		CartSlot:        v.GetString("CART_SLOT"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		RedisURL:        v.GetString("REDIS_URL"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Offline:         v.GetBool("OFFLINE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.CartPersistence {
	case PersistenceNone, PersistenceMemory, PersistenceSQLite, PersistencePostgres, PersistenceRedis:
	default:
		return fmt.Errorf("unknown CART_PERSISTENCE %q", c.CartPersistence)
	}
	if c.CartSlot == "" {
		return fmt.Errorf("CART_SLOT must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	return nil
}
