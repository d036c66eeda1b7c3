package payment

import (
	errors "github.com/frahmantamala/payweb-gateway/internal"
	"github.com/frahmantamala/payweb-gateway/internal/core/common/validation"
)

// CheckoutRequest is the body of the checkout initiate call. The payment
// method hint is optional; when present it is forwarded to the gateway as
// PAY_METHOD.
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}

// CheckoutResponse is the hand-off payload for the shopper's browser: the
// hosted payment page plus the two opaque values it needs. Nothing sensitive
// crosses here; the merchant key stays server-side.
type CheckoutResponse struct {
	ProcessURL   string `json:"process_url"`
	PayRequestID string `json:"pay_request_id"`
	Checksum     string `json:"checksum"`
	Reference    string `json:"reference"`
}

// RedirectCallback is what the returning browser carries: locally generated
// correlation values in the query string, provider values in the POST body.
// The reported transaction status is only used for checksum verification,
// never for financial decisions.
type RedirectCallback struct {
	OrderID           int64
	Reference         string
	PayRequestID      string
	TransactionStatus string
	Checksum          string
}

func (cb *RedirectCallback) Validate() error {
	validator := validation.NewValidator()

	validator.Field("orders_id", cb.OrderID).Required()
	validator.Field("reference", cb.Reference).Required()
	validator.Field("pay_request_id", cb.PayRequestID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func NewInvalidOrderIDError(raw string) *errors.AppError {
	return errors.NewValidationError("invalid order id: "+raw, errors.ErrCodeInvalidOrderID)
}
