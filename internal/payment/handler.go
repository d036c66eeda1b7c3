package payment

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/payweb-gateway/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// InitiatePayment handles POST /api/v1/checkout/{order_id}/initiate
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "order_id")
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || orderID <= 0 {
		h.Logger.Warn("initiate with invalid order id", "order_id", rawID)
		h.HandleError(w, NewInvalidOrderIDError(rawID))
		return
	}

	// The body is optional; an empty one means no payment method hint.
	var req CheckoutRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		h.Logger.Warn("initiate with malformed body", "order_id", orderID, "error", decodeErr)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.PaymentService.InitiatePayment(r.Context(), orderID, req.PaymentMethod)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
