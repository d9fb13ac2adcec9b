package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/config"
	ledgerhttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/render"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	// Load .env for local development; in containers the environment is
	// already set.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting ledger API")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Events are optional: without AMQP the API still works, the worker
	// just never hears about new transactions.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, transaction events will not be published")
	}

	resolver := services.NewCachedResolver(repo, cfg.CategoryCacheTTL)
	txService := services.NewTransactionService(repo, repo, resolver, events)
	catService := services.NewCategoryService(repo, resolver)

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		logger.Error("Failed to load report template", log.FieldError, err)
		os.Exit(1)
	}
	reportService := services.NewReportService(repo, resolver, renderer)

	server := ledgerhttp.NewServer(":"+cfg.Port, ledgerhttp.Deps{
		Transactions:  txService,
		Categories:    catService,
		Reports:       reportService,
		Users:         repo,
		Notifications: repo,
		Tokens:        auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		RateLimit: ratelimit.Config{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	})

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
