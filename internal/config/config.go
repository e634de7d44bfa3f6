// Package config loads storefront settings from defaults, an optional config
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Supported session stores.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	AppPort   string `mapstructure:"app_port"`
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	Database DatabaseConfig `mapstructure:",squash"`
	Session  SessionConfig  `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`

	RabbitMQURL string `mapstructure:"rabbitmq_url"`
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"db_driver"`
	DSN    string `mapstructure:"database_dsn"`
}

// SessionConfig controls the session cookie and its storage.
type SessionConfig struct {
	Store        string        `mapstructure:"session_store"`
	Expiration   time.Duration `mapstructure:"session_expiration"`
	CookieSecure bool          `mapstructure:"session_cookie_secure"`
}

// RedisConfig is used when the session store is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"redis_addr"`
	DB       int    `mapstructure:"redis_db"`
	Password string `mapstructure:"redis_password"`
}

// AuthConfig holds token settings and the bootstrap admin credential.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	// AdminPassword is the initial admin credential. When empty a random one
	// is generated at bootstrap.
	AdminPassword string `mapstructure:"admin_password"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_EXPIRATION", 24*time.Hour)
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads the configuration. If path is empty, storefront.yaml is searched
// for in the usual places; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.storefront")
		v.AddConfigPath("/etc/storefront")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates a configured viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.Driver != DriverMemory && c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %s", c.Database.Driver)
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME must not be empty")
	}
	return nil
}
