package products

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/joao-fontenele/shiptrack/internal/domain"
)

const meterName = "github.com/joao-fontenele/shiptrack/internal/products"

type storeMetrics struct {
	mutations metric.Int64Counter
	persist   metric.Float64Histogram
}

// newStoreMetrics registers the store instruments on the store's meter
// provider, or the global one. Instruments that fail to register fall back to
// no-ops.
func newStoreMetrics(s *Store, provider metric.MeterProvider) *storeMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	mutations, err := meter.Int64Counter("products.mutations",
		metric.WithDescription("Product mutations that matched a product"),
	)
	if err != nil {
		s.logger.Warn("failed to create mutations counter", "error", err)
		mutations, _ = fallback.Int64Counter("products.mutations")
	}

	persist, err := meter.Float64Histogram("products.persist.duration",
		metric.WithDescription("Time spent writing the product collection to storage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		s.logger.Warn("failed to create persist histogram", "error", err)
		persist, _ = fallback.Float64Histogram("products.persist.duration")
	}

	_, err = meter.Int64ObservableGauge("products.count",
		metric.WithDescription("Products currently held, by status"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			counts := s.CountByStatus()
			o.Observe(int64(counts.Pending), metric.WithAttributes(attribute.String("status", string(domain.ProductStatusPending))))
			o.Observe(int64(counts.Delivered), metric.WithAttributes(attribute.String("status", string(domain.ProductStatusDelivered))))
			o.Observe(int64(counts.Cancelled), metric.WithAttributes(attribute.String("status", string(domain.ProductStatusCancelled))))
			return nil
		}),
	)
	if err != nil {
		s.logger.Warn("failed to create product count gauge", "error", err)
	}

	return &storeMetrics{mutations: mutations, persist: persist}
}

func (m *storeMetrics) recordMutation(ctx context.Context, operation string) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *storeMetrics) recordPersist(ctx context.Context, operation string, d time.Duration, err error) {
	m.persist.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))
}
