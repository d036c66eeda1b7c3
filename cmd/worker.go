package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/payweb-gateway/internal/core/events"
	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker processes",
	Long:  `Start background workers such as the payment outcome event consumer`,
}

// Event bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus with the payment outcome handlers attached`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

func startEventWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	eventBus := events.NewEventBus(log)
	payment.NewEventHandler(log).RegisterEventHandlers(eventBus)

	log.Info("event bus worker started, waiting for events")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received signal, shutting down event bus", "signal", sig)
	log.Info("event bus shutdown complete")
}

func init() {
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
