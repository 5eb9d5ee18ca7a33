// Package main is the entrypoint for the briefdash gateway server.
// The gateway authenticates requests, validates parameters, enforces the
// dry-run cost gate, and serves reshaped KPI series to the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briefdash-labs/briefdash/internal/bootstrap"
	"github.com/briefdash-labs/briefdash/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr       = flag.String("addr", "", "HTTP listen address (default from config)")
		configPath = flag.String("config", "", "config file path")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("briefdash-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.Server.Port)
	}

	readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		readTimeout = 30 * time.Second
	}
	writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		writeTimeout = 90 * time.Second
	}

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      app.Gateway,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		app.Log.Info().Msg("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.Log.Error().Err(err).Msg("shutdown error")
		}
		close(done)
	}()

	app.Log.Info().
		Str("addr", listenAddr).
		Str("version", version).
		Float64("cost_ceiling_gb", cfg.Cost.MaxScanGB).
		Msg("gateway starting")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	app.Log.Info().Msg("gateway stopped")
	return nil
}
