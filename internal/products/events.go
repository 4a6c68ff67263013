package products

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/shiptrack/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// PublishEvents returns an observer that forwards every product event to the
// publisher, keyed by product id. Publish failures are logged, never returned:
// the mutation has already been applied.
func PublishEvents(publisher EventPublisher, logger *slog.Logger) Observer {
	return func(ctx context.Context, event domain.ProductEvent) {
		if err := publisher.Publish(ctx, event.ProductID, event); err != nil {
			logger.Error("failed to publish product event", "error", err, "product_id", event.ProductID, "type", event.Type)
		}
	}
}
