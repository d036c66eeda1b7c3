package payweb_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

var _ = Describe("Client", func() {
	var (
		logger   *slog.Logger
		server   *httptest.Server
		respBody string
		respCode int
		lastReq  string
	)

	newClient := func() *payweb.Client {
		return payweb.NewClient(payweb.Config{
			InitiateURL: server.URL + "/payweb3/initiate.trans",
			QueryURL:    server.URL + "/payweb3/query.trans",
			Timeout:     2 * time.Second,
		}, logger)
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
		respBody = "PAYGATE_ID=10011072130&PAY_REQUEST_ID=23B785AE-C96C-32AF-4879-D2C9363DB6E8&REFERENCE=abc-123&CHECKSUM=b41a77f83a275a5dc7dcade5fda92d2d"
		respCode = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			lastReq = string(raw)
			w.WriteHeader(respCode)
			io.WriteString(w, respBody)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Initiate", func() {
		It("posts url-encoded fields and parses the url-encoded response", func() {
			var req payweb.Fields
			req.Set(payweb.FieldPaygateID, "10011072130")
			req.Set(payweb.FieldReference, "abc-123")
			req.Set(payweb.FieldReturnURL, "https://shop.example/cb?a=1&b=2")
			req.Set(payweb.FieldChecksum, "deadbeef")

			resp, err := newClient().Initiate(context.Background(), req)

			Expect(err).ToNot(HaveOccurred())
			Expect(lastReq).To(Equal(req.Encode()))
			Expect(resp.Get(payweb.FieldPayRequestID)).To(Equal("23B785AE-C96C-32AF-4879-D2C9363DB6E8"))
			Expect(resp.Get(payweb.FieldChecksum)).To(Equal("b41a77f83a275a5dc7dcade5fda92d2d"))
		})

		It("returns ProviderRejected when the gateway reports an ERROR field", func() {
			respBody = "ERROR=DATA_CHK"

			var req payweb.Fields
			req.Set(payweb.FieldPaygateID, "10011072130")

			_, err := newClient().Initiate(context.Background(), req)

			Expect(payweb.IsProviderRejected(err)).To(BeTrue())
			var rejected *payweb.ProviderRejected
			Expect(err).To(BeAssignableToTypeOf(rejected))
			Expect(err.Error()).To(ContainSubstring("DATA_CHK"))
		})

		It("returns TransportError when the connection fails", func() {
			client := newClient()
			server.Close()

			_, err := client.Initiate(context.Background(), payweb.Fields{})

			Expect(payweb.IsTransportError(err)).To(BeTrue())
			Expect(payweb.IsProviderRejected(err)).To(BeFalse())
		})

		It("returns TransportError on an empty body", func() {
			respBody = ""

			_, err := newClient().Initiate(context.Background(), payweb.Fields{})

			Expect(payweb.IsTransportError(err)).To(BeTrue())
		})

		It("returns TransportError on a non-200 status", func() {
			respCode = http.StatusBadGateway

			_, err := newClient().Initiate(context.Background(), payweb.Fields{})

			Expect(payweb.IsTransportError(err)).To(BeTrue())
		})
	})

	Describe("Query", func() {
		It("hits the query endpoint with the same transport contract", func() {
			respBody = "TRANSACTION_STATUS=1&TRANSACTION_ID=TXN55&AMOUNT=15000&CURRENCY=ZAR&RESULT_DESC=Auth+Done&CHECKSUM=f00d"

			var req payweb.Fields
			req.Set(payweb.FieldPaygateID, "10011072130")
			req.Set(payweb.FieldPayRequestID, "23B785AE-C96C-32AF-4879-D2C9363DB6E8")
			req.Set(payweb.FieldReference, "abc-123")

			resp, err := newClient().Query(context.Background(), req)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Get(payweb.FieldTransactionStatus)).To(Equal("1"))
			Expect(resp.Get(payweb.FieldTransactionID)).To(Equal("TXN55"))
			Expect(resp.Get(payweb.FieldResultDesc)).To(Equal("Auth Done"))
		})
	})
})
