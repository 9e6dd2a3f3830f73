package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/keepup/internal/config"
	"github.com/rezkam/keepup/internal/observability"
	"github.com/rezkam/keepup/internal/store/postgres"
	"github.com/rezkam/keepup/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	providers, err := observability.InitAll(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Collector:   cfg.Observability.OTelCollector,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shut down observability providers", "error", err)
		}
	}()
	slog.SetDefault(providers.Logger)

	store, err := postgres.NewStoreWithConfig(ctx, postgres.PoolConfig{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	mat := worker.New(store, worker.WithInterval(cfg.Interval))

	runErr := make(chan error, 1)
	go func() {
		runErr <- mat.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutdown signal received, stopping materialiser worker")
		mat.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		select {
		case <-runErr:
			slog.InfoContext(shutdownCtx, "materialiser worker stopped cleanly")
		case <-shutdownCtx.Done():
			slog.WarnContext(shutdownCtx, "materialiser worker shutdown timed out")
		}
		return nil
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("materialiser worker: %w", err)
		}
		return nil
	}
}
