/**
 * @description
 * This is the main entry point for the agent service. Its responsibility is
 * to initialize all necessary components and start the HTTP server, the
 * follow-up queue consumer, and the cron-driven reminder sweep.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Builds the LLM provider registry from the configured API keys.
 * - Wires the follow-up worker to RabbitMQ when a broker is configured,
 *   falling back to in-process dispatch otherwise.
 * - Uses Redis for the per-account lock when available, otherwise an
 *   in-process lock.
 * - Starts the server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, API, app logic, and storage.
 * - pgxpool for database connections, godotenv for local config, go-redis,
 *   and the rabbitmq package for messaging.
 */
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/SidhartK/per-account-agent/internal/api"
	"github.com/SidhartK/per-account-agent/internal/app"
	"github.com/SidhartK/per-account-agent/internal/config"
	"github.com/SidhartK/per-account-agent/internal/store"
	"github.com/SidhartK/per-account-agent/pkg/llm"
	"github.com/SidhartK/per-account-agent/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	dbConfig.MaxConns = 20
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Build the LLM provider registry from configured API keys.
	registry := llm.NewRegistry()
	if cfg.OpenAIAPIKey != "" {
		registry.Register("openai", llm.NewOpenAIClient(cfg.OpenAIAPIKey))
	}
	if cfg.AnthropicAPIKey != "" {
		registry.Register("anthropic", llm.NewAnthropicClient(cfg.AnthropicAPIKey))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		registry.Register("google", gemini)
	}
	if len(registry.Providers()) == 0 {
		logger.Error("no LLM provider configured; set at least one API key")
		os.Exit(1)
	}
	logger.Info("LLM providers registered", "providers", registry.Providers())

	// Per-account lock: Redis when configured, in-process otherwise.
	var locker app.AccountLocker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("unable to parse Redis URL", "error", err)
			os.Exit(1)
		}
		locker = app.NewRedisAccountLocker(redis.NewClient(opts), "")
		logger.Info("using Redis account lock")
	} else {
		locker = app.NewMemoryAccountLocker()
		logger.Info("using in-process account lock")
	}

	accountRepo := store.NewPostgresAccountRepository(dbpool)
	messageRepo := store.NewPostgresMessageRepository(dbpool)

	service := app.NewService(accountRepo, messageRepo, registry, locker, logger, app.Defaults{
		Provider: cfg.DefaultProvider,
		Model:    cfg.DefaultModel,
	})
	worker := app.NewWorker(service, logger)

	// Follow-up hand-off: queue-backed when RabbitMQ is configured.
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to connect RabbitMQ producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to connect RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		if err := consumer.ConsumeWithBindings(rabbitmq.ConversationEventsExchange, app.FollowUpQueueName, worker.Bindings()); err != nil {
			logger.Error("failed to start follow-up consumer", "error", err)
			os.Exit(1)
		}
		service.SetFollowUpDispatcher(app.NewQueueDispatcher(producer))
		logger.Info("follow-up queue consumer started")
	} else {
		service.SetFollowUpDispatcher(app.NewInlineDispatcher(worker, logger))
		logger.Info("using in-process follow-up dispatch")
	}

	// Start the cron scheduler for the reminder sweep.
	scheduler := app.NewScheduler(service, logger, cfg.ReminderSchedule)
	scheduler.Start()
	defer func() {
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
	}()

	handlers := api.NewHandlers(service, api.AuthConfig{
		Password:     cfg.AuthPassword,
		PasswordHash: cfg.AuthPasswordHash,
		Secret:       cfg.AuthSecret,
	}, logger)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Routes(handlers, cfg.CronSecret),
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped gracefully")
}
