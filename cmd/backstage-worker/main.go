package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backstage/internal/amqp"
	"backstage/internal/config"
	applog "backstage/internal/log"
	gsheet "backstage/internal/sheets/google"
	"backstage/internal/storage"
	"backstage/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting backstage-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Sheet sync is optional; without a spreadsheet the worker only
	// keeps the local mirror alive.
	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:        cfg.GoogleSpreadsheetID,
			TransactionsSheet:    cfg.TransactionsSheet,
			EventsSheet:          cfg.EventsSheet,
			AllocationRulesSheet: cfg.AllocationRulesSheet,
			CategorySharesSheet:  cfg.CategorySharesSheet,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncWorker *worker.SyncWorker
	if sheetsClient != nil {
		syncWorker = worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

		// Pick up the show calendar before serving sync messages.
		logger.Info("Mirroring events from the spreadsheet...")
		if err := syncWorker.MirrorEvents(ctx); err != nil {
			logger.Error("Failed to mirror events", "error", err)
			// Don't exit, continue with normal operation
		}

		// Process any transactions left pending from a previous run.
		logger.Info("Performing startup sync check...")
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			logger.Error("Failed startup sync check", "error", err)
			// Don't exit, continue with normal operation
		}

		go func() {
			handler := func(msg *amqp.TransactionSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			}
			if err := amqpClient.ConsumeTransactionSync(ctx, handler); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()

		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		// Refresh the event mirror once a day; the calendar changes
		// on the sheet, not locally.
		eventTicker := time.NewTicker(24 * time.Hour)
		defer eventTicker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.ProcessPendingTransactions(ctx); err != nil {
						logger.Error("Periodic sync failed", "error", err)
					}
				case <-eventTicker.C:
					if err := syncWorker.MirrorEvents(ctx); err != nil {
						logger.Error("Periodic event mirror failed", "error", err)
					}
				}
			}
		}()
	} else {
		logger.Info("Skipping sync operations, no Google Sheets client available")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight operations a moment to finish.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
