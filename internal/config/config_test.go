package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5.0, cfg.Cost.MaxScanGB)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.KPIQuery)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.TableQuery)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "asia-northeast1", cfg.Warehouse.Location)
	assert.Equal(t, "static", cfg.Auth.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Cost.MaxScanGB)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.KPIQuery)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.TableQuery)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
warehouse:
  project: my-warehouse
cost:
  maxScanGB: 2.5
timeouts:
  kpiQuery: 45s
cache:
  backend: redis
  ttl: 12h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-warehouse", cfg.Warehouse.Project)
	assert.Equal(t, 2.5, cfg.Cost.MaxScanGB)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.KPIQuery)
	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Timeouts.TableQuery)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cost: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing project", func(c *Config) {}, "warehouse.project is required"},
		{"valid", func(c *Config) { c.Warehouse.Project = "p" }, ""},
		{"zero ceiling", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Cost.MaxScanGB = 0
		}, "cost.maxScanGB must be positive"},
		{"zero ttl", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Cache.TTL = 0
		}, "cache.ttl must be positive"},
		{"unknown backend", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Cache.Backend = "dynamo"
		}, "unknown cache backend"},
		{"unknown auth mode", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Auth.Mode = "oauth"
		}, "unknown auth mode"},
		{"jwt mode without secret", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Auth.Mode = "jwt"
		}, "auth.jwtSecret is required"},
		{"jwt mode with secret", func(c *Config) {
			c.Warehouse.Project = "p"
			c.Auth.Mode = "jwt"
			c.Auth.JWTSecret = "secret"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "brief",
		Password: "pw",
		Name:     "snapshots",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=brief password=pw dbname=snapshots sslmode=require",
		d.DSN())
}
