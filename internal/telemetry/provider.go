package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	defaultOTLPEndpoint = "localhost:4317"
	serviceNamespace    = "shiptrack"
)

func newResource(serviceName, serviceVersion string) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
		semconv.ServiceNamespace(serviceNamespace),
	}
	if env := os.Getenv("DEPLOYMENT_ENVIRONMENT"); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(env))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// newSampler samples root spans at ratio (0..1) and otherwise follows the
// parent. An empty or unparsable ratio samples everything.
func newSampler(ratio string) trace.Sampler {
	f, err := strconv.ParseFloat(ratio, 64)
	if err != nil || f < 0 || f > 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(f))
}

// InitTracerProvider exports spans over OTLP gRPC to OTEL_EXPORTER_OTLP_ENDPOINT,
// sampling at OTEL_TRACES_SAMPLER_ARG, and installs W3C trace context and
// baggage propagation.
func InitTracerProvider(ctx context.Context, serviceName, serviceVersion string) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter for %s: %w", endpoint, err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithSampler(newSampler(os.Getenv("OTEL_TRACES_SAMPLER_ARG"))),
		trace.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// WithHTTPRoute tags the current span with the matched mux pattern.
// otelhttp wraps the mux, so it never sees the route itself.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		h(w, r)
	}
}

// SpanName names server spans after the matched route, falling back to the
// raw path for unmatched requests.
func SpanName(_ string, r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.Method + " " + r.URL.Path
}
