// Package observability wires up OpenTelemetry tracing, metrics, and logging
// for both the server and worker binaries. It is the single place either
// binary calls into at startup; config.ObservabilityConfig controls whether
// the OTLP exporters are enabled at all.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls whether OTLP export is enabled and where it's sent.
type Config struct {
	Enabled     bool
	ServiceName string
	// Collector is an OTLP HTTP endpoint host:port. If set and
	// OTEL_EXPORTER_OTLP_ENDPOINT isn't already in the environment, it's
	// exported so the SDK's own env-based config picks it up.
	Collector string
}

// Providers bundles the three OTel providers InitAll starts, plus the
// slog.Logger clients should install as the default logger.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *log.LoggerProvider
	Logger         *slog.Logger
}

// Shutdown flushes and stops all three providers, collecting any errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}
	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}
	if p.LoggerProvider != nil {
		errs = append(errs, p.LoggerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// InitAll initializes tracing, metrics, and logging in one call and returns
// the bundle cmd/server and cmd/worker defer-shutdown on exit.
func InitAll(ctx context.Context, cfg Config) (*Providers, error) {
	if cfg.Collector != "" {
		if _, set := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); !set {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Collector)
		}
	}

	tp, err := InitTracerProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer provider: %w", err)
	}
	mp, err := InitMeterProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init meter provider: %w", err)
	}
	lp, logger, err := InitLogger(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &Providers{TracerProvider: tp, MeterProvider: mp, LoggerProvider: lp, Logger: logger}, nil
}

// newResource creates a resource with service metadata merged with defaults.
// Handles partial resource errors gracefully as they are non-fatal.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	serviceResource, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithSchemaURL(semconv.SchemaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create service resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), serviceResource)
	if err != nil {
		if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
			return res, nil
		}
		return nil, fmt.Errorf("merge resources: %w", err)
	}
	return res, nil
}

// InitTracerProvider initializes an OTLP/HTTP tracer provider. When cfg is
// disabled it installs a no-op provider so instrumented code has nothing
// special to check.
func InitTracerProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, nil
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracehttp.New(context.Background(), otlptracehttp.WithTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider, nil
}

// InitMeterProvider initializes an OTLP/HTTP meter provider.
func InitMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return mp, nil
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	metricExporter, err := otlpmetrichttp.New(context.Background(), otlpmetrichttp.WithTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

// InitLogger initializes an OTLP/HTTP log provider and returns a bridge
// slog.Logger. When cfg is disabled it falls back to a plain JSON stdout logger.
func InitLogger(ctx context.Context, cfg Config) (*log.LoggerProvider, *slog.Logger, error) {
	if !cfg.Enabled {
		return log.NewLoggerProvider(), slog.New(slog.NewJSONHandler(os.Stdout, nil)), nil
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, nil, err
	}

	logExporter, err := otlploghttp.New(context.Background(), otlploghttp.WithTimeout(10*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("create log exporter: %w", err)
	}

	loggerProvider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(logExporter, log.WithExportTimeout(5*time.Second))),
		log.WithResource(res),
	)
	logger := otelslog.NewLogger(cfg.ServiceName, otelslog.WithLoggerProvider(loggerProvider))

	return loggerProvider, logger, nil
}
