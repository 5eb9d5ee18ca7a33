package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/briefdash-labs/briefdash/internal/bootstrap"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the KPI gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(addr string) error {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if addr == "" {
		addr = fmt.Sprintf(":%d", c.cfg.Server.Port)
	}

	readTimeout, err := time.ParseDuration(c.cfg.Server.ReadTimeout)
	if err != nil {
		readTimeout = 30 * time.Second
	}
	writeTimeout, err := time.ParseDuration(c.cfg.Server.WriteTimeout)
	if err != nil {
		writeTimeout = 90 * time.Second
	}

	server := &http.Server{
		Addr:         addr,
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

	app.Log.Info().Str("addr", addr).Str("version", Version).Msg("gateway starting")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	app.Log.Info().Msg("gateway stopped")
	return nil
}
