package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentConfirmed = "payment.confirmed"
	EventTypePaymentFailed    = "payment.failed"
)

type PaymentConfirmedEvent struct {
	BaseEvent
	OrderID       int64   `json:"order_id"`
	Reference     string  `json:"reference"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

func NewPaymentConfirmedEvent(orderID int64, reference, transactionID string, amount float64, currency string) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"reference":      reference,
				"transaction_id": transactionID,
				"amount":         amount,
				"currency":       currency,
			},
		},
		OrderID:       orderID,
		Reference:     reference,
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

func NewPaymentFailedEvent(orderID int64, reference, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":  orderID,
				"reference": reference,
				"reason":    reason,
			},
		},
		OrderID:   orderID,
		Reference: reference,
		Reason:    reason,
	}
}
