package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/payweb-gateway/internal"
	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

// Shopper-facing messages. Internal detail never leaks past these.
const (
	MsgPaymentError      = "There has been an error processing your payment. Please try again."
	MsgMerchantDataError = "There has been an error verifying the merchant data. Please try again."
	MsgDeclined          = "Transaction has been declined"
	MsgCancelled         = "User cancelled transaction"
	MsgUnknownError      = "An unknown error occurred"
)

// MerchantConfig is the slice of process configuration the payment flows
// need. Copied out of the app config at construction; read-only afterwards.
type MerchantConfig struct {
	Enabled       bool
	MerchantID    string
	Locale        string
	Country       string
	DisableNotify bool
	SuccessURL    string
	FailureURL    string
	CallbackURL   string
	Statuses      StatusIDs
}

type PaymentService struct {
	gateway GatewayAPI
	codec   payweb.Codec
	orders  OrderRepository
	applier *OutcomeApplier
	cfg     MerchantConfig
	logger  *slog.Logger
}

func NewPaymentService(gateway GatewayAPI, codec payweb.Codec, orders OrderRepository, applier *OutcomeApplier, cfg MerchantConfig, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		codec:   codec,
		orders:  orders,
		applier: applier,
		cfg:     cfg,
		logger:  logger,
	}
}

// InitiatePayment registers a pending transaction with the gateway and
// returns the hand-off payload for the shopper's browser. The order moves to
// processing; no financial state is written here.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID int64, paymentMethod string) (*CheckoutResponse, error) {
	if !s.cfg.Enabled {
		return nil, errors.ErrPaymentsDisabled
	}

	o, err := s.orders.GetOrder(orderID)
	if err != nil {
		s.logger.Warn("initiate for unknown order", "order_id", orderID, "error", err)
		return nil, errors.ErrOrderNotFound
	}
	if o.Status == s.cfg.Statuses.Paid {
		return nil, errors.ErrOrderAlreadyPaid
	}

	amountMinor := int64(math.Round(o.Total * 100))
	if amountMinor < 0 {
		return nil, errors.NewValidationError("order total must not be negative", errors.ErrCodeInvalidAmount)
	}

	// The reference correlates initiate, redirect and notify for this
	// attempt. uuid.New draws from crypto/rand, so concurrent checkouts
	// cannot collide.
	reference := uuid.New().String()

	if err := s.orders.SetStatus(orderID, s.cfg.Statuses.Processing, "PayWeb3 payment initiated. Reference: "+reference); err != nil {
		return nil, errors.NewInternalError("failed to mark order processing", err)
	}

	request := s.buildInitiateRequest(o, reference, paymentMethod)
	s.codec.Sign(&request)

	response, err := s.gateway.Initiate(ctx, request)
	if err != nil {
		if payweb.IsProviderRejected(err) {
			s.logger.Error("gateway rejected initiate", "order_id", orderID, "reference", reference, "error", err)
			return nil, errors.NewExternalError(MsgPaymentError, errors.ErrCodeGatewayRejected, err)
		}
		s.logger.Error("initiate transport failure", "order_id", orderID, "reference", reference, "error", err)
		return nil, errors.NewExternalError(MsgPaymentError, errors.ErrCodeGatewayUnavailable, err)
	}

	// Respond only to a response we can authenticate; a forged or mangled
	// one must never reach the shopper's browser.
	if !s.codec.Verify(response) {
		authErr := &payweb.AuthenticityError{Leg: "initiate response"}
		s.logger.Error("initiate response failed checksum verification", "order_id", orderID, "reference", reference)
		return nil, errors.NewExternalError(MsgMerchantDataError, errors.ErrCodeChecksumMismatch, authErr)
	}

	s.logger.Info("payment initiated",
		"order_id", orderID,
		"reference", reference,
		"pay_request_id", response.Get(payweb.FieldPayRequestID))

	return &CheckoutResponse{
		ProcessURL:   s.gateway.ProcessURL(),
		PayRequestID: response.Get(payweb.FieldPayRequestID),
		Checksum:     response.Get(payweb.FieldChecksum),
		Reference:    reference,
	}, nil
}

func (s *PaymentService) buildInitiateRequest(o *order.Order, reference, paymentMethod string) payweb.Fields {
	returnURL := s.callbackURL("redirect", o.ID, reference)

	var f payweb.Fields
	f.Set(payweb.FieldPaygateID, s.cfg.MerchantID)
	f.Set(payweb.FieldReference, reference)
	f.Set(payweb.FieldAmount, strconv.FormatInt(int64(math.Round(o.Total*100)), 10))
	f.Set(payweb.FieldCurrency, o.Currency)
	f.Set(payweb.FieldReturnURL, returnURL)
	f.Set(payweb.FieldTransactionDate, time.Now().UTC().Format("2006-01-02 15:04"))
	f.Set(payweb.FieldLocale, s.cfg.Locale)
	f.Set(payweb.FieldCountry, s.cfg.Country)
	f.Set(payweb.FieldEmail, o.CustomerEmail)
	if paymentMethod != "" {
		f.Set(payweb.FieldPayMethod, paymentMethod)
	}
	if !s.cfg.DisableNotify {
		f.Set(payweb.FieldNotifyURL, s.callbackURL("notify", o.ID, reference))
	}
	return f
}

func (s *PaymentService) callbackURL(leg string, orderID int64, reference string) string {
	q := url.Values{}
	q.Set("orders_id", strconv.FormatInt(orderID, 10))
	q.Set("reference", reference)
	return fmt.Sprintf("%s/%s?%s", s.cfg.CallbackURL, leg, q.Encode())
}

// HandleRedirect is the browser-driven confirmation leg. The browser's
// reported status is authenticated but never trusted for financial
// decisions: on a valid checksum the gateway is re-queried and only that
// answer drives the outcome. The returned URL always completes the
// navigation, error or not.
func (s *PaymentService) HandleRedirect(ctx context.Context, cb RedirectCallback) string {
	o, err := s.orders.GetOrder(cb.OrderID)
	if err != nil {
		s.logger.Warn("redirect for unknown order", "order_id", cb.OrderID, "error", err)
		return s.failureRedirect("An error occured while processing transaction. The order could not be found")
	}

	// Reconstruct the checksum input in the provider's field order.
	var browser payweb.Fields
	browser.Set(payweb.FieldPaygateID, s.cfg.MerchantID)
	browser.Set(payweb.FieldPayRequestID, cb.PayRequestID)
	browser.Set(payweb.FieldTransactionStatus, cb.TransactionStatus)
	browser.Set(payweb.FieldReference, cb.Reference)
	browser.Set(payweb.FieldChecksum, cb.Checksum)

	if !s.codec.Verify(browser) {
		s.logger.Warn("redirect checksum verification failed, no state change",
			"order_id", cb.OrderID,
			"reference", cb.Reference)
		return s.failureRedirect("An error occured while processing transaction. The checksum could not be verified")
	}

	var query payweb.Fields
	query.Set(payweb.FieldPaygateID, s.cfg.MerchantID)
	query.Set(payweb.FieldPayRequestID, cb.PayRequestID)
	query.Set(payweb.FieldReference, cb.Reference)
	s.codec.Sign(&query)

	authoritative, err := s.gateway.Query(ctx, query)
	if err != nil {
		if payweb.IsTransportError(err) {
			// Unresolved, not declined: the gateway being unreachable
			// says nothing about the transaction. Leave the order in
			// processing; the notify leg or a later re-query settles it.
			s.logger.Error("status query unreachable, leaving order unresolved",
				"order_id", cb.OrderID,
				"reference", cb.Reference,
				"error", err)
			return s.failureRedirect(MsgPaymentError)
		}
		// An explicit gateway ERROR on query is a real answer.
		s.logger.Error("status query rejected", "order_id", cb.OrderID, "reference", cb.Reference, "error", err)
		if applyErr := s.applier.ApplyFailure(ctx, o, cb.Reference, "Gateway query error: "+err.Error()); applyErr != nil {
			s.logger.Error("failed to record query rejection", "order_id", cb.OrderID, "error", applyErr)
		}
		return s.failureRedirect(MsgPaymentError)
	}

	status, err := s.reconcile(ctx, o, cb.Reference, authoritative)
	if err != nil {
		s.logger.Error("reconciliation failed on redirect leg",
			"order_id", cb.OrderID,
			"reference", cb.Reference,
			"status", status.String(),
			"error", err)
		return s.failureRedirect(MsgUnknownError)
	}

	switch status {
	case payweb.StatusApproved:
		return s.successRedirect(cb.OrderID)
	case payweb.StatusDeclined:
		return s.failureRedirect(MsgDeclined)
	case payweb.StatusCancelled:
		return s.failureRedirect(MsgCancelled)
	default:
		return s.failureRedirect(MsgUnknownError)
	}
}

// HandleNotify is the server-to-server confirmation leg. The payload is
// authoritative once its checksum verifies; there is no re-query. Any error
// is absorbed: the handler acknowledges regardless so the provider stops
// retrying, and problems surface only in logs and the audit trail.
func (s *PaymentService) HandleNotify(ctx context.Context, orderID int64, payload payweb.Fields) error {
	o, err := s.orders.GetOrder(orderID)
	if err != nil {
		s.logger.Warn("notify for unknown order", "order_id", orderID, "error", err)
		return nil
	}

	if !s.codec.Verify(payload) {
		s.logger.Warn("notify checksum verification failed, no state change",
			"order_id", orderID)
		return nil
	}

	if code, ok := payload.Lookup(payweb.FieldError); ok {
		s.logger.Warn("notify carried gateway error, no state change",
			"order_id", orderID,
			"code", code)
		return nil
	}

	reference := payload.Get(payweb.FieldReference)
	status, err := s.reconcile(ctx, o, reference, payload)
	if err != nil {
		s.logger.Error("reconciliation failed on notify leg",
			"order_id", orderID,
			"reference", reference,
			"status", status.String(),
			"error", err)
		return err
	}
	return nil
}

// reconcile applies exactly one outcome from an authoritative payload. It is
// the single decision point both legs share.
func (s *PaymentService) reconcile(ctx context.Context, o *order.Order, reference string, authoritative payweb.Fields) (payweb.TransactionStatus, error) {
	statusCode := authoritative.Get(payweb.FieldTransactionStatus)
	status := payweb.ParseTransactionStatus(statusCode)

	switch status {
	case payweb.StatusApproved:
		return status, s.applier.ApplySuccess(ctx, o, reference, authoritative)
	case payweb.StatusDeclined, payweb.StatusCancelled:
		reason := authoritative.Get(payweb.FieldResultDesc)
		if reason == "" {
			reason = status.String()
		}
		return status, s.applier.ApplyFailure(ctx, o, reference, reason)
	default:
		// Outside the documented set: no mutation, certainly no paid.
		return status, &payweb.UnknownStatusError{Code: statusCode}
	}
}

func (s *PaymentService) successRedirect(orderID int64) string {
	q := url.Values{}
	q.Set("orders_id", strconv.FormatInt(orderID, 10))
	return s.cfg.SuccessURL + "?" + q.Encode()
}

func (s *PaymentService) failureRedirect(message string) string {
	q := url.Values{}
	q.Set("error_message", message)
	return s.cfg.FailureURL + "?" + q.Encode()
}
