// Package bootstrap is the composition root shared by the gateway binary
// and the CLI: it turns a loaded configuration into wired components.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/briefdash-labs/briefdash/internal/auth"
	"github.com/briefdash-labs/briefdash/internal/config"
	"github.com/briefdash-labs/briefdash/internal/gateway"
	"github.com/briefdash-labs/briefdash/internal/kpi"
	"github.com/briefdash-labs/briefdash/internal/observability"
	"github.com/briefdash-labs/briefdash/internal/refresh"
	"github.com/briefdash-labs/briefdash/internal/snapshot"
	"github.com/briefdash-labs/briefdash/internal/warehouse"
)

// App holds the wired application components.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Warehouse *warehouse.Client
	Guard     *kpi.Guard
	Builder   *kpi.Builder
	Store     snapshot.Store
	Audit     observability.QueryLogger
	Refresher *refresh.Refresher
	Gateway   *gateway.Gateway
}

// New wires the application from configuration. The warehouse client is
// created lazily; no network calls happen here except the optional
// Postgres schema setup.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	audit := observability.NewJSONAuditLogger(os.Stdout)

	wh := warehouse.NewClient(warehouse.Config{
		ProjectID:       cfg.Warehouse.Project,
		Location:        cfg.Warehouse.Location,
		CredentialsFile: cfg.Warehouse.CredentialsFile,
	})

	guard := kpi.NewGuard(wh, cfg.Cost.MaxScanGB, map[string]string{
		"app": cfg.App.Name,
		"env": cfg.App.Environment,
	})
	builder := kpi.NewBuilder(cfg.Warehouse.Project)

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	refresher := refresh.New(guard, builder, store, audit, log, cfg.Timeouts.TableQuery)

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(guard, builder, refresher, authenticator, audit, log, gateway.Config{
		KPITimeout:   cfg.Timeouts.KPIQuery,
		TableTimeout: cfg.Timeouts.TableQuery,
	})

	return &App{
		Config:    cfg,
		Log:       log,
		Warehouse: wh,
		Guard:     guard,
		Builder:   builder,
		Store:     store,
		Audit:     audit,
		Refresher: refresher,
		Gateway:   gw,
	}, nil
}

// Close releases the app's connections.
func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return err
	}
	return a.Warehouse.Close()
}

func newStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return snapshot.NewMemoryStore(), nil
	case "redis":
		return snapshot.NewRedisStore(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB), nil
	case "postgres":
		store, err := snapshot.NewPostgresStore(cfg.Cache.Database.DSN())
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown cache backend %q", cfg.Cache.Backend)
}

func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case "static":
		if cfg.Auth.Token == "" {
			return nil, fmt.Errorf("bootstrap: auth.token is required in static mode")
		}
		return auth.NewStaticTokenAuthenticator(cfg.Auth.Token, "dashboard"), nil
	case "jwt":
		return auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Audience), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown auth mode %q", cfg.Auth.Mode)
}
