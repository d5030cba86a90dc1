package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umkm-labs/warung/fields"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
)

const (
	otelShutdownTimeout = 5 * time.Second
	defaultSampleRatio  = 0.1
)

type shutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// initOTel installs a global OTLP tracer provider when tracing is enabled or
// an endpoint is configured. Otherwise the assistant's spans stay on the
// no-op provider.
func initOTel(ctx context.Context, cfg fields.Config, logger *logrus.Logger) shutdownFunc {
	endpoint := firstNonEmpty(cfg.OtelEndpoint, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if !cfg.OtelEnabled && endpoint == "" {
		return noopShutdown
	}

	exporter, err := otlptracegrpc.New(ctx, exporterOptions(endpoint, cfg.OtelInsecure)...)
	if err != nil {
		logger.WithError(err).Warn("otel trace exporter init failed")
		return noopShutdown
	}

	service := firstNonEmpty(cfg.OtelServiceName, os.Getenv("OTEL_SERVICE_NAME"), "warung")
	res, err := serviceResource(service, firstNonEmpty(cfg.OtelServiceVersion, Version))
	if err != nil {
		logger.WithError(err).Warn("otel resource init failed")
	}

	ratio := sampleRatio(cfg.OtelSampleRate)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"sample_rate": ratio,
		"service":     service,
	}).Info("otel tracing enabled")
	return tp.Shutdown
}

func exporterOptions(endpoint string, insecure bool) []otlptracegrpc.Option {
	var opts []otlptracegrpc.Option
	if endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
	}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func serviceResource(name, version string) (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	))
}

// sampleRatio keeps the configured rate inside (0, 1]; unset means 10%.
func sampleRatio(v float64) float64 {
	switch {
	case v <= 0:
		return defaultSampleRatio
	case v > 1:
		return 1
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
