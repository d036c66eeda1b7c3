package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/payweb-gateway/internal"
	"github.com/frahmantamala/payweb-gateway/internal/core/events"
	"github.com/frahmantamala/payweb-gateway/internal/payment"
	paymentpostgres "github.com/frahmantamala/payweb-gateway/internal/payment/postgres"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
	"github.com/frahmantamala/payweb-gateway/internal/transport"
	"github.com/frahmantamala/payweb-gateway/internal/transport/rest"
	"github.com/frahmantamala/payweb-gateway/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle checkout and gateway callbacks`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	DB             *sqlx.DB
	Router         *chi.Mux
	PaymentHandler *payment.Handler
	WebhookHandler *payment.WebhookHandler
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.PaymentHandler,
		deps.WebhookHandler,
		deps.Config.Server.AllowedOrigins,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already-pooled pgx connection.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	codec := payweb.NewCodec(config.PayWeb.EncryptionKey)
	gatewayClient := payweb.NewClient(payweb.Config{
		InitiateURL: config.PayWeb.InitiateURL,
		ProcessURL:  config.PayWeb.ProcessURL,
		QueryURL:    config.PayWeb.QueryURL,
		Timeout:     config.PayWeb.Timeout,
		Debug:       config.PayWeb.Debug,
	}, log)

	statuses := payment.StatusIDs{
		Processing: config.PayWeb.ProcessingStatusID,
		Paid:       config.PayWeb.PaidStatusID,
		Failed:     config.PayWeb.FailedStatusID,
	}

	orderRepo := paymentpostgres.NewOrderRepository(gormDB, statuses)
	currencyRepo := paymentpostgres.NewCurrencyRepository(gormDB)
	cartRepo := paymentpostgres.NewCartRepository(gormDB)

	eventBus := events.NewEventBus(log)
	payment.NewEventHandler(log).RegisterEventHandlers(eventBus)

	applier := payment.NewOutcomeApplier(orderRepo, currencyRepo, cartRepo, eventBus, log)

	merchantCfg := payment.MerchantConfig{
		Enabled:       config.PayWeb.Enabled,
		MerchantID:    config.PayWeb.MerchantID,
		Locale:        config.PayWeb.Locale,
		Country:       config.PayWeb.Country,
		DisableNotify: config.PayWeb.DisableNotify,
		SuccessURL:    config.PayWeb.SuccessURL,
		FailureURL:    config.PayWeb.FailureURL,
		CallbackURL:   config.Server.BaseURL + "/api/v1/payment/callback",
		Statuses:      statuses,
	}

	paymentService := payment.NewPaymentService(gatewayClient, codec, orderRepo, applier, merchantCfg, log)

	baseHandler := transport.NewBaseHandler(log)
	paymentHandler := payment.NewHandler(baseHandler, paymentService, log)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, log)

	return &Dependencies{
		Config:         config,
		DB:             db,
		Router:         chi.NewRouter(),
		PaymentHandler: paymentHandler,
		WebhookHandler: webhookHandler,
		Logger:         log,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
