package payment

import (
	"context"
	"errors"

	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

const (
	ModuleCode = "payweb3"
	ModuleName = "PayWeb3"

	// Payment record status once funds are captured.
	PaymentStatusCaptured = 20
)

// ErrOutcomeAlreadyApplied is returned by the repository when an order is
// already in a terminal state for the requested transition. Callers treat it
// as a successful no-op: both confirmation legs, and retried notifies, may
// race to apply the same outcome.
var ErrOutcomeAlreadyApplied = errors.New("payment outcome already applied")

// StatusIDs maps the order lifecycle to the order store's status ids.
type StatusIDs struct {
	Processing int
	Paid       int
	Failed     int
}

// PaidTotals carries the recomputed totals block for a paid order.
type PaidTotals struct {
	Amount   float64
	PaidText string
	DueText  string
}

// OrderRepository is the narrow surface this service needs from the order
// store. ApplyPaid and ApplyFailed must perform their terminal-state check
// and the write atomically: redirect and notify for the same transaction can
// run concurrently.
type OrderRepository interface {
	GetOrder(id int64) (*order.Order, error)
	GetPayment(orderID int64) (*order.OrderPayment, error)
	SetStatus(orderID int64, statusID int, comment string) error
	ApplyPaid(orderID int64, rec *order.OrderPayment, totals PaidTotals, comment string) error
	ApplyFailed(orderID int64, comment string) error
}

// CurrencyRepository resolves display formatting metadata by currency code.
type CurrencyRepository interface {
	GetByCode(code string) (*order.Currency, error)
}

// CartRepository clears a shopper's pending basket once their order is paid.
type CartRepository interface {
	ClearBasket(customerID int64) error
}

// GatewayAPI is the outbound PayWeb3 surface.
type GatewayAPI interface {
	Initiate(ctx context.Context, request payweb.Fields) (payweb.Fields, error)
	Query(ctx context.Context, request payweb.Fields) (payweb.Fields, error)
	ProcessURL() string
}

// ServiceAPI is consumed by the HTTP handlers.
type ServiceAPI interface {
	InitiatePayment(ctx context.Context, orderID int64, paymentMethod string) (*CheckoutResponse, error)
	HandleRedirect(ctx context.Context, cb RedirectCallback) string
	HandleNotify(ctx context.Context, orderID int64, payload payweb.Fields) error
}
