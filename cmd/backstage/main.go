package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backstage/internal/amqp"
	"backstage/internal/config"
	"backstage/internal/core"
	apphttp "backstage/internal/http"
	applog "backstage/internal/log"
	"backstage/internal/services"
	ports "backstage/internal/sheets"
	gsheet "backstage/internal/sheets/google"
	mem "backstage/internal/sheets/memory"
	"backstage/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		txReader    ports.TransactionReader
		evReader    ports.EventReader
		allocReader ports.AllocationReader
		txWriter    ports.TransactionWriter
		allocWriter ports.AllocationWriter
	)

	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:        cfg.GoogleSpreadsheetID,
			TransactionsSheet:    cfg.TransactionsSheet,
			EventsSheet:          cfg.EventsSheet,
			AllocationRulesSheet: cfg.AllocationRulesSheet,
			CategorySharesSheet:  cfg.CategorySharesSheet,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err, "backend", cfg.DataBackend)
			os.Exit(1)
		}
		txReader, evReader, allocReader, txWriter, allocWriter = cli, cli, cli, cli, cli
		logger.Info("Initialized Google Sheets backend", "backend", cfg.DataBackend)
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		txReader, evReader, allocReader, txWriter, allocWriter = repo, repo, repo, repo, repo
		logger.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		store := mem.NewSeeded()
		txReader, evReader, allocReader, txWriter, allocWriter = store, store, store, store, store
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	}

	// AMQP is best effort; the ledger keeps accepting writes when the
	// broker is down and the worker catches up from the pending queue.
	var publisher services.SyncPublisher
	if cfg.DataBackend == "sqlite" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sheet sync deferred to periodic checks", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	kpiCfg := core.DefaultKpiConfig()
	kpiCfg.AttendanceTarget = cfg.AttendanceTarget

	source := struct {
		ports.TransactionReader
		ports.EventReader
		ports.AllocationReader
	}{txReader, evReader, allocReader}

	caches := apphttp.NewReportCache(cfg.ReportCacheTTL)
	caches.StartCleanup(cfg.ReportCacheTTL)
	reports := services.NewReportService(source, kpiCfg, logger)
	ledger := services.NewLedgerService(txWriter, publisher, caches, logger)
	alloc := services.NewAllocationConfigService(allocWriter, caches, logger)

	srv := apphttp.NewServer(":"+cfg.Port, reports, ledger, alloc, caches, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting backstage server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
