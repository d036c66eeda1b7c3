package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/payweb-gateway/internal/core/events"
)

// EventHandler consumes payment outcome events for merchant-facing
// notification. It is intentionally outside the money path: reconciliation
// never depends on a handler here succeeding.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandlePaymentConfirmed(ctx context.Context, event events.Event) error {
	confirmed, ok := event.(*events.PaymentConfirmedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentConfirmedEvent, got %T", event)
	}

	h.logger.Info("merchant notification: payment confirmed",
		"order_id", confirmed.OrderID,
		"reference", confirmed.Reference,
		"transaction_id", confirmed.TransactionID,
		"amount", confirmed.Amount,
		"currency", confirmed.Currency,
		"event_id", confirmed.EventID())

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.logger.Info("merchant notification: payment failed",
		"order_id", failed.OrderID,
		"reference", failed.Reference,
		"reason", failed.Reason,
		"event_id", failed.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentConfirmed, h.HandlePaymentConfirmed)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypePaymentConfirmed, events.EventTypePaymentFailed})
}
