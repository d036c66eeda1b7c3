package payment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/payweb-gateway/internal"
	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/internal/transport"
)

type initiateRecorder struct {
	stubService
	response *payment.CheckoutResponse
	err      error

	lastOrderID int64
	lastMethod  string
}

func (s *initiateRecorder) InitiatePayment(_ context.Context, orderID int64, paymentMethod string) (*payment.CheckoutResponse, error) {
	s.lastOrderID = orderID
	s.lastMethod = paymentMethod
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

var _ = Describe("Handler", func() {
	var (
		service *initiateRecorder
		handler *payment.Handler
	)

	request := func(orderID, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/"+orderID+"/initiate", reader)

		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("order_id", orderID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

		rec := httptest.NewRecorder()
		handler.InitiatePayment(rec, req)
		return rec
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = &initiateRecorder{
			response: &payment.CheckoutResponse{
				ProcessURL:   "https://secure.paygate.co.za/payweb3/process.trans",
				PayRequestID: "REQ-1",
				Checksum:     "abc123",
				Reference:    "ref-1001",
			},
		}
		handler = payment.NewHandler(transport.NewBaseHandler(logger), service, logger)
	})

	It("returns the hand-off payload for a valid order id", func() {
		rec := request("1001", `{"payment_method":"CC"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(service.lastOrderID).To(Equal(int64(1001)))
		Expect(service.lastMethod).To(Equal("CC"))

		var resp payment.CheckoutResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.PayRequestID).To(Equal("REQ-1"))
	})

	It("accepts an empty body", func() {
		rec := request("1001", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(service.lastMethod).To(BeEmpty())
	})

	It("rejects a non-numeric order id", func() {
		rec := request("abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps a not-found order onto 404", func() {
		service.err = apperrors.ErrOrderNotFound

		rec := request("1001", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("maps an already-paid order onto 409", func() {
		service.err = apperrors.ErrOrderAlreadyPaid

		rec := request("1001", "")
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})
})
