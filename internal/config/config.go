// Package config provides configuration loading for the briefdash CLI and gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Warehouse configuration (BigQuery)
	Warehouse WarehouseConfig `mapstructure:"warehouse"`

	// Cost configuration (scan ceiling)
	Cost CostConfig `mapstructure:"cost"`

	// Timeouts configuration (per-call wall clocks)
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`

	// Cache configuration (snapshot store)
	Cache CacheConfig `mapstructure:"cache"`

	// Server configuration (for gateway)
	Server ServerConfig `mapstructure:"server"`

	// Auth configuration
	Auth AuthConfig `mapstructure:"auth"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// App identity (used for job labels)
	App AppConfig `mapstructure:"app"`
}

// WarehouseConfig holds BigQuery connection configuration.
// Location is pinned explicitly; the client never auto-detects the region.
type WarehouseConfig struct {
	Project         string `mapstructure:"project"`
	Dataset         string `mapstructure:"dataset"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentialsFile"`
}

// CostConfig holds the scan-cost ceiling.
type CostConfig struct {
	// MaxScanGB is the ceiling in binary gigabytes. An estimate strictly
	// greater than this rejects the query; the same value caps billing on
	// real executions.
	MaxScanGB float64 `mapstructure:"maxScanGB"`
}

// TimeoutsConfig holds per-call execution wall clocks.
type TimeoutsConfig struct {
	KPIQuery   time.Duration `mapstructure:"kpiQuery"`
	TableQuery time.Duration `mapstructure:"tableQuery"`
}

// CacheConfig holds snapshot-store configuration.
type CacheConfig struct {
	// Backend selects the store implementation: "memory", "redis" or "postgres".
	Backend string `mapstructure:"backend"`

	// TTL is the staleness threshold. Snapshots older than this are
	// reported stale at read time; they are never deleted.
	TTL time.Duration `mapstructure:"ttl"`

	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"readTimeout"`
	WriteTimeout string `mapstructure:"writeTimeout"`
}

// AuthConfig holds authentication configuration.
// Mode selects the authenticator: "static" or "jwt".
type AuthConfig struct {
	Mode      string `mapstructure:"mode"`
	Token     string `mapstructure:"token"`
	JWTSecret string `mapstructure:"jwtSecret"`
	Audience  string `mapstructure:"audience"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AppConfig holds application identity used in job labels.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Project:  "",
			Dataset:  "recruitment",
			Location: "asia-northeast1",
		},
		Cost: CostConfig{
			MaxScanGB: 5.0,
		},
		Timeouts: TimeoutsConfig{
			KPIQuery:   60 * time.Second,
			TableQuery: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Database: DatabaseConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "briefdash",
				Name:    "briefdash",
				SSLMode: "disable",
			},
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  "30s",
			WriteTimeout: "90s",
		},
		Auth: AuthConfig{
			Mode:     "static",
			Audience: "briefdash",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Name:        "briefdash",
			Environment: "dev",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".briefdash"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BRIEFDASH")
	v.AutomaticEnv()

	// Config file is optional; env and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if c.Warehouse.Project == "" {
		return fmt.Errorf("config: warehouse.project is required")
	}
	if c.Cost.MaxScanGB <= 0 {
		return fmt.Errorf("config: cost.maxScanGB must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache.ttl must be positive")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Auth.Mode {
	case "static", "jwt":
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}
	if c.Auth.Mode == "jwt" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwtSecret is required in jwt mode")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("warehouse.project", "")
	v.SetDefault("warehouse.dataset", "recruitment")
	v.SetDefault("warehouse.location", "asia-northeast1")
	v.SetDefault("warehouse.credentialsFile", "")
	v.SetDefault("cost.maxScanGB", 5.0)
	v.SetDefault("timeouts.kpiQuery", "60s")
	v.SetDefault("timeouts.tableQuery", "30s")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.database.host", "localhost")
	v.SetDefault("cache.database.port", 5432)
	v.SetDefault("cache.database.user", "briefdash")
	v.SetDefault("cache.database.password", "")
	v.SetDefault("cache.database.name", "briefdash")
	v.SetDefault("cache.database.sslmode", "disable")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "90s")
	v.SetDefault("auth.mode", "static")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.audience", "briefdash")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("app.name", "briefdash")
	v.SetDefault("app.environment", "dev")
}
