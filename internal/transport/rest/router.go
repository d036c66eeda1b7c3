package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/internal/transport/middleware"
	"github.com/frahmantamala/payweb-gateway/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if paymentHandler != nil {
			r.Post("/checkout/{order_id}/initiate", paymentHandler.InitiatePayment)
		}

		if webhookHandler != nil {
			// The return leg arrives as a POST from the gateway's hosted
			// page, but some browsers replay it as a GET after bfcache.
			r.Get("/payment/callback/redirect", webhookHandler.HandleRedirect)
			r.Post("/payment/callback/redirect", webhookHandler.HandleRedirect)
			r.Post("/payment/callback/notify", webhookHandler.HandleNotify)
		}
	})
}
