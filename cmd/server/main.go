package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/keepup/internal/config"
	"github.com/rezkam/keepup/internal/httpapi"
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
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obsCfg := observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Collector:   cfg.Observability.OTelCollector,
	}
	providers, err := observability.InitAll(ctx, obsCfg)
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

	slog.InfoContext(ctx, "starting keepup server")

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

	slog.InfoContext(ctx, "storage initialized", "dsn", maskPassword(cfg.Storage.DSN))

	mat := worker.New(store, worker.WithInterval(5*time.Minute))
	workerErr := make(chan error, 1)
	go func() {
		if err := mat.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			workerErr <- err
			return
		}
		workerErr <- nil
	}()

	_, router := httpapi.NewServer(store, httpapi.WithPageLimits(cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit))
	httpServer := &http.Server{
		Addr:         cfg.HTTPHost + ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve http: %w", err)
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "http server shutdown timed out, forcing close", "error", err)
			httpServer.Close()
		}

		mat.Stop()
		<-workerErr

		return nil
	case err := <-serveErr:
		return err
	case err := <-workerErr:
		if err != nil {
			return fmt.Errorf("materialiser worker: %w", err)
		}
		return nil
	}
}

// maskPassword masks the password in a connection string before it's logged.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
