// Package main runs the credit score HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"credit-risk-engine/internal/api"
	"credit-risk-engine/internal/app"
	"credit-risk-engine/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := config.NewLogger(config.LogConfig{}, os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}

	// Operational switches (env vars as defaults)
	useMemory := flag.Bool("use-memory", cfg.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", cfg.Storage.Migrate, "Apply database migrations on startup")
	addr := flag.String("addr", cfg.HTTP.Addr, "HTTP listen address")
	flag.Parse()

	cfg.Storage.UseMemory = *useMemory
	cfg.Storage.Migrate = *migrate
	cfg.HTTP.Addr = *addr

	logger := config.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open stores")
	}
	defer cleanup()

	eng := app.NewEngine(cfg, stores, logger)
	auth := api.NewAuthenticator([]byte(cfg.Auth.Secret), cfg.Auth.Issuer)
	server := api.NewServer(eng, auth,
		api.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		api.WithLogger(logger),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: cfg.HTTP.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Bool("memory", cfg.Storage.UseMemory).
			Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}
