package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/export/sheets"
	"ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

// digestInterval is how often the monthly digest job checks for an
// undigested previous month. Runs are idempotent, so the interval only
// bounds latency.
const digestInterval = 12 * time.Hour

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting ledger worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sheets export is optional; without a spreadsheet id the worker only
	// stores notifications.
	var exporter worker.Exporter
	if cfg.SheetsSpreadsheetID != "" {
		exp, err := sheets.NewFromEnv(ctx, logger.WithComponent(log.ComponentExport))
		if err != nil {
			logger.Warn("Sheets export disabled", log.FieldError, err)
		} else {
			exporter = exp
			logger.Info("Sheets export enabled", "sheet", cfg.SheetsSheetName)
		}
	}

	adviceWorker := worker.NewAdviceWorker(repo, repo, exporter, logger)

	// The digest job shares the exporter's summary hook when available.
	var summaryExporter worker.SummaryExporter
	if exp, ok := exporter.(worker.SummaryExporter); ok {
		summaryExporter = exp
	}
	digestWorker := worker.NewDigestWorker(repo, repo, summaryExporter, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
			return adviceWorker.HandleEvent(ctx, msg)
		})
	})
	g.Go(func() error {
		if count, err := digestWorker.RunOnce(ctx, time.Now()); err != nil {
			logger.Error("Initial digest run failed", log.FieldError, err)
		} else if count > 0 {
			logger.Info("Initial digest run complete", log.FieldCount, count)
		}

		ticker := time.NewTicker(digestInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				count, err := digestWorker.RunOnce(ctx, now)
				if err != nil {
					logger.Error("Digest run failed", log.FieldError, err)
					continue
				}
				if count > 0 {
					logger.Info("Digest run complete", log.FieldCount, count)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
