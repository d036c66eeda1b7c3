package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/payweb-gateway/internal/core/events"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

// OutcomeApplier turns an authoritative gateway payload into durable order
// state. Both apply methods are idempotent: the repository performs the
// terminal-state check and the write as one atomic compare-and-set, so a
// second leg or a retried notify lands as a no-op.
type OutcomeApplier struct {
	orders     OrderRepository
	currencies CurrencyRepository
	carts      CartRepository
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewOutcomeApplier(orders OrderRepository, currencies CurrencyRepository, carts CartRepository, bus *events.EventBus, logger *slog.Logger) *OutcomeApplier {
	return &OutcomeApplier{
		orders:     orders,
		currencies: currencies,
		carts:      carts,
		bus:        bus,
		logger:     logger,
	}
}

// ApplySuccess records an approved transaction: order status paid, one
// payment record, rewritten totals, an audit entry, and a cleared basket.
func (a *OutcomeApplier) ApplySuccess(ctx context.Context, o *order.Order, reference string, authoritative payweb.Fields) error {
	amountMinor, err := strconv.ParseInt(authoritative.Get(payweb.FieldAmount), 10, 64)
	if err != nil {
		return fmt.Errorf("authoritative payload has no usable AMOUNT: %w", err)
	}
	if amountMinor < 0 {
		return fmt.Errorf("authoritative AMOUNT is negative: %d", amountMinor)
	}

	// Minor to major units assumes a 2-decimal currency. ZAR and every
	// other currency this gateway settles in qualifies; 0- or 3-decimal
	// currencies would need an exponent table.
	amount := float64(amountMinor) / 100.0

	currencyCode := authoritative.Get(payweb.FieldCurrency)
	if currencyCode == "" {
		currencyCode = o.Currency
	}
	transactionID := authoritative.Get(payweb.FieldTransactionID)

	rec := &order.OrderPayment{
		OrderID:       o.ID,
		Amount:        amount,
		Currency:      currencyCode,
		Module:        ModuleCode,
		ModuleName:    ModuleName,
		TransactionID: transactionID,
		Status:        PaymentStatusCaptured,
	}

	totals := PaidTotals{
		Amount:   amount,
		PaidText: a.formatAmount(amount, currencyCode),
		DueText:  a.formatAmount(0, currencyCode),
	}

	comment := "Payment Successful. Transaction ID: " + transactionID

	if err := a.orders.ApplyPaid(o.ID, rec, totals, comment); err != nil {
		if errors.Is(err, ErrOutcomeAlreadyApplied) {
			a.logger.Info("order already paid, skipping duplicate confirmation",
				"order_id", o.ID,
				"reference", reference,
				"transaction_id", transactionID)
			return nil
		}
		return fmt.Errorf("apply paid outcome: %w", err)
	}

	if err := a.carts.ClearBasket(o.CustomerID); err != nil {
		// The payment is already durable; a stale basket is an
		// inconvenience, not a reason to fail the confirmation.
		a.logger.Error("failed to clear basket after payment",
			"order_id", o.ID,
			"customer_id", o.CustomerID,
			"error", err)
	}

	a.logger.Info("payment confirmed",
		"order_id", o.ID,
		"reference", reference,
		"transaction_id", transactionID,
		"amount", amount,
		"currency", currencyCode)

	a.bus.Publish(ctx, events.NewPaymentConfirmedEvent(o.ID, reference, transactionID, amount, currencyCode))
	return nil
}

// ApplyFailure records a declined or cancelled transaction: order status
// failed plus an audit entry carrying the provider's reason. The payment
// record is never touched, and an already-paid order is never demoted.
func (a *OutcomeApplier) ApplyFailure(ctx context.Context, o *order.Order, reference, reason string) error {
	comment := "PayWeb3 message: " + reason

	if err := a.orders.ApplyFailed(o.ID, comment); err != nil {
		if errors.Is(err, ErrOutcomeAlreadyApplied) {
			a.logger.Info("order already in terminal state, skipping failure",
				"order_id", o.ID,
				"reference", reference,
				"reason", reason)
			return nil
		}
		return fmt.Errorf("apply failed outcome: %w", err)
	}

	a.logger.Info("payment failed",
		"order_id", o.ID,
		"reference", reference,
		"reason", reason)

	a.bus.Publish(ctx, events.NewPaymentFailedEvent(o.ID, reference, reason))
	return nil
}

// formatAmount renders the amount with the currency's display metadata,
// falling back to a plain two-decimal format when the lookup fails.
func (a *OutcomeApplier) formatAmount(amount float64, currencyCode string) string {
	cur, err := a.currencies.GetByCode(currencyCode)
	if err != nil {
		a.logger.Warn("currency lookup failed, using plain format",
			"currency", currencyCode,
			"error", err)
		return fmt.Sprintf("%.2f", amount)
	}

	places := cur.DecimalPlaces
	if places < 0 {
		places = 2
	}
	formatted := strconv.FormatFloat(math.Abs(amount), 'f', places, 64)

	intPart, fracPart, hasFrac := strings.Cut(formatted, ".")
	var grouped strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteString(cur.ThousandsPoint)
		}
		grouped.WriteRune(d)
	}

	out := grouped.String()
	if hasFrac {
		out += cur.DecimalPoint + fracPart
	}
	if amount < 0 {
		out = "-" + out
	}
	return cur.SymbolLeft + out + cur.SymbolRight
}
