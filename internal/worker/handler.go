package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joao-fontenele/shiptrack/internal/domain"
	"github.com/joao-fontenele/shiptrack/internal/messaging"
	"github.com/joao-fontenele/shiptrack/internal/notifier"
)

type Sender interface {
	Send(ctx context.Context, n notifier.Notification) error
}

// NotificationHandler turns product events into recipient notifications.
type NotificationHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewNotificationHandler(sender Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender: sender,
		logger: logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, msg messaging.Message) error {
	var event domain.ProductEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: unmarshal product event: %v", messaging.ErrDiscard, err)
	}

	n, ok := notificationFor(event)
	if !ok {
		h.logger.Debug("product event ignored", "product_id", event.ProductID, "type", event.Type)
		return nil
	}
	if n.To == "" {
		h.logger.Warn("product has no recipient phone", "product_id", event.ProductID, "type", event.Type)
		return nil
	}

	h.logger.Info("processing product event", "product_id", event.ProductID, "type", event.Type, "status", event.Product.Status)

	if err := h.sender.Send(ctx, n); err != nil {
		h.logger.Error("failed to send notification", "error", err, "product_id", event.ProductID)

		var statusErr *notifier.StatusError
		if errors.As(err, &statusErr) && statusErr.Permanent() {
			return fmt.Errorf("%w: %v", messaging.ErrDiscard, err)
		}
		return fmt.Errorf("send notification: %w", err)
	}

	h.logger.Info("notification sent", "product_id", event.ProductID, "subject", n.Subject)
	return nil
}

// notificationFor picks the message for an event. Only creations and moves
// into a final status notify the recipient.
func notificationFor(event domain.ProductEvent) (notifier.Notification, bool) {
	p := event.Product

	switch {
	case event.Type == domain.ProductCreated:
		return notifier.Notification{
			To:      p.RecipientPhone,
			Subject: "Shipment registered: " + p.Title,
			Body: fmt.Sprintf("Hi %s, your shipment %q from %s to %s is expected on %s.",
				p.Recipient, p.Title, p.Origin, p.Destination, formatETA(p.ETA)),
		}, true

	case event.StatusChanged() && p.Status == domain.ProductStatusDelivered:
		return notifier.Notification{
			To:      p.RecipientPhone,
			Subject: "Shipment delivered: " + p.Title,
			Body:    fmt.Sprintf("Hi %s, your shipment %q was delivered to %s.", p.Recipient, p.Title, p.Destination),
		}, true

	case event.StatusChanged() && p.Status == domain.ProductStatusCancelled:
		return notifier.Notification{
			To:      p.RecipientPhone,
			Subject: "Shipment cancelled: " + p.Title,
			Body:    fmt.Sprintf("Hi %s, your shipment %q to %s has been cancelled.", p.Recipient, p.Title, p.Destination),
		}, true
	}

	return notifier.Notification{}, false
}

func formatETA(eta int64) string {
	return time.Unix(eta, 0).UTC().Format("2006-01-02")
}
