package observability

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
)

const ServiceName = "habit-tracker-backend"

// SetupTracing installs a global tracer provider. With
// OTEL_EXPORTER_OTLP_ENDPOINT set spans go to the collector over HTTP,
// otherwise they are pretty-printed to stdout. OTEL_TRACES_DISABLED turns
// tracing off entirely.
func SetupTracing(ctx context.Context, log *logger.Logger) (func(context.Context) error, error) {
	if disabled() {
		log.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	var (
		exporter tracesdk.SpanExporter
		err      error
	)
	if strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != "" {
		exporter, err = otlptracehttp.New(ctx)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
	)
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info("Tracing initialized", "service", ServiceName)
	return tp.Shutdown, nil
}

func disabled() bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv("OTEL_TRACES_DISABLED"))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
