package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fcd/internal/amqp"
	"fcd/internal/config"
	"fcd/internal/extract"
	apphttp "fcd/internal/http"
	"fcd/internal/ledger"
	"fcd/internal/ledger/memory"
	applog "fcd/internal/log"
	"fcd/internal/services"
	"fcd/internal/storage"
)

func main() {
	// Load .env for local development; ignore errors in production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		writer ledger.EntryWriter
		lister ledger.EntryLister
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer func() { _ = repo.Close() }()
		writer, lister = repo, repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store := memory.New()
		writer, lister = store, store
		logger.Info("Initialized memory backend")
	}

	// The mirror queue only matters when a journal is configured. A dead
	// broker is not fatal here: the worker's sweep catches up later.
	var publisher services.MirrorPublisher
	if cfg.GoogleSpreadsheetID != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, entries will mirror via periodic sweep only", "error", err)
		} else {
			defer func() { _ = amqpClient.Close() }()
			publisher = amqpClient
			logger.Info("AMQP mirror queue connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var extractor ledger.SlipExtractor
	if cfg.SlipOCREnabled {
		cli, err := extract.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize slip OCR client", "error", err)
			os.Exit(1)
		}
		extractor = cli
		logger.Info("Slip OCR enabled")
	}

	service := services.NewEntryService(writer, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, service, lister, extractor)
	srv.MaxHeaderBytes = 1 << 16

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

	logger.Info("Starting fcd server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
