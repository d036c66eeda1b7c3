package payment_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
	"github.com/frahmantamala/payweb-gateway/internal/transport"
)

// stubService records what the handlers pass down and serves canned answers.
type stubService struct {
	redirectDestination string
	notifyErr           error

	lastRedirect  payment.RedirectCallback
	lastNotifyID  int64
	notifyPayload payweb.Fields
	notifyCalls   int
}

func (s *stubService) InitiatePayment(_ context.Context, orderID int64, paymentMethod string) (*payment.CheckoutResponse, error) {
	return &payment.CheckoutResponse{}, nil
}

func (s *stubService) HandleRedirect(_ context.Context, cb payment.RedirectCallback) string {
	s.lastRedirect = cb
	return s.redirectDestination
}

func (s *stubService) HandleNotify(_ context.Context, orderID int64, payload payweb.Fields) error {
	s.notifyCalls++
	s.lastNotifyID = orderID
	s.notifyPayload = payload
	return s.notifyErr
}

var _ = Describe("WebhookHandler", func() {
	var (
		service *stubService
		handler *payment.WebhookHandler
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = &stubService{
			redirectDestination: "https://shop.example.com/checkout/success?orders_id=1001",
		}
		handler = payment.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
	})

	Describe("HandleRedirect", func() {
		postBody := "PAYGATE_ID=10011072130&PAY_REQUEST_ID=REQ-1&TRANSACTION_STATUS=1&CHECKSUM=abc123"

		It("parses the posted fields and 302s to the service's destination", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/redirect?orders_id=1001&reference=ref-1001",
				strings.NewReader(postBody))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			handler.HandleRedirect(rec, req)

			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal(service.redirectDestination))

			Expect(service.lastRedirect.OrderID).To(Equal(int64(1001)))
			Expect(service.lastRedirect.Reference).To(Equal("ref-1001"))
			Expect(service.lastRedirect.PayRequestID).To(Equal("REQ-1"))
			Expect(service.lastRedirect.TransactionStatus).To(Equal("1"))
			Expect(service.lastRedirect.Checksum).To(Equal("abc123"))
		})

		It("still redirects when the body is empty", func() {
			req := httptest.NewRequest(http.MethodGet,
				"/api/v1/payment/callback/redirect?orders_id=1001&reference=ref-1001", nil)
			rec := httptest.NewRecorder()

			handler.HandleRedirect(rec, req)

			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(service.lastRedirect.PayRequestID).To(BeEmpty())
		})

		It("passes a zero order id through when the query is junk", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/redirect?orders_id=junk",
				strings.NewReader(postBody))
			rec := httptest.NewRecorder()

			handler.HandleRedirect(rec, req)

			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(service.lastRedirect.OrderID).To(BeZero())
		})
	})

	Describe("HandleNotify", func() {
		notifyBody := "PAYGATE_ID=10011072130&PAY_REQUEST_ID=REQ-1&REFERENCE=ref-1001&TRANSACTION_STATUS=1&TRANSACTION_ID=TXN55&CHECKSUM=abc123"

		It("acknowledges with the fixed body", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/notify?orders_id=1001&reference=ref-1001",
				strings.NewReader(notifyBody))
			rec := httptest.NewRecorder()

			handler.HandleNotify(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal(payment.NotifyAckBody))
			Expect(service.lastNotifyID).To(Equal(int64(1001)))
			Expect(service.notifyPayload.Get(payweb.FieldTransactionID)).To(Equal("TXN55"))
		})

		It("preserves the wire order of the posted fields", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/notify?orders_id=1001",
				strings.NewReader(notifyBody))
			rec := httptest.NewRecorder()

			handler.HandleNotify(rec, req)

			Expect(service.notifyPayload.Values()).To(Equal([]string{
				"10011072130", "REQ-1", "ref-1001", "1", "TXN55", "abc123",
			}))
		})

		It("acknowledges even when processing fails", func() {
			service.notifyErr = &payweb.UnknownStatusError{Code: "9"}
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/notify?orders_id=1001",
				strings.NewReader(notifyBody))
			rec := httptest.NewRecorder()

			handler.HandleNotify(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal(payment.NotifyAckBody))
		})

		It("rejects a body that cannot be parsed", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/payment/callback/notify?orders_id=1001",
				strings.NewReader("PAY_REQUEST_ID=%zz"))
			rec := httptest.NewRecorder()

			handler.HandleNotify(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.notifyCalls).To(BeZero())
		})
	})
})
