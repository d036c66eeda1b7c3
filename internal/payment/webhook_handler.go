package payment

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/payweb-gateway/internal/payweb"
	"github.com/frahmantamala/payweb-gateway/internal/transport"
)

// NotifyAckBody is the fixed acknowledgement the provider expects. Anything
// else makes it retry the notify indefinitely.
const NotifyAckBody = "OK"

// WebhookHandler adapts the two inbound confirmation legs onto the shared
// reconciliation service. Bodies are read raw and parsed with the ordered
// field codec: checksum verification depends on wire order, which
// http.Request.ParseForm would destroy.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandleRedirect handles GET/POST /api/v1/payment/callback/redirect. The
// browser always ends up somewhere: a 302 to the success page or to the
// failure page with a generic message.
func (h *WebhookHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID, _ := strconv.ParseInt(q.Get("orders_id"), 10, 64)

	body, _ := io.ReadAll(r.Body)
	fields, err := payweb.ParseFields(string(body))
	if err != nil {
		h.logger.Warn("redirect body could not be parsed", "orders_id", q.Get("orders_id"), "error", err)
		fields = payweb.Fields{}
	}

	cb := RedirectCallback{
		OrderID:           orderID,
		Reference:         q.Get("reference"),
		PayRequestID:      fields.Get(payweb.FieldPayRequestID),
		TransactionStatus: fields.Get(payweb.FieldTransactionStatus),
		Checksum:          fields.Get(payweb.FieldChecksum),
	}

	h.logger.Info("received redirect callback",
		"order_id", cb.OrderID,
		"reference", cb.Reference,
		"pay_request_id", cb.PayRequestID)

	if err := cb.Validate(); err != nil {
		h.logger.Warn("redirect callback failed validation", "order_id", cb.OrderID, "error", err)
	}

	destination := h.paymentService.HandleRedirect(r.Context(), cb)
	http.Redirect(w, r, destination, http.StatusFound)
}

// HandleNotify handles POST /api/v1/payment/callback/notify. It acknowledges
// with the fixed body no matter what happened internally; only a body that
// cannot be parsed at all is rejected.
func (h *WebhookHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID, _ := strconv.ParseInt(q.Get("orders_id"), 10, 64)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read notify body", "orders_id", q.Get("orders_id"), "error", err)
		h.WriteError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	fields, err := payweb.ParseFields(string(body))
	if err != nil {
		h.logger.Error("notify body could not be parsed", "orders_id", q.Get("orders_id"), "error", err)
		h.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	h.logger.Info("received notify callback",
		"order_id", orderID,
		"reference", q.Get("reference"),
		"field_count", fields.Len())

	if err := h.paymentService.HandleNotify(r.Context(), orderID, fields); err != nil {
		// Still acknowledged: the reason lives in logs and the audit
		// trail, and a provider retry would hit the same outcome.
		h.logger.Error("notify processing failed", "order_id", orderID, "error", err)
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, NotifyAckBody)
}
