package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/iho/walletd/internal/adapter/http"
	"github.com/iho/walletd/internal/adapter/http/handler"
	postgresRepo "github.com/iho/walletd/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletd/internal/adapter/repository/redis"
	"github.com/iho/walletd/internal/infrastructure/config"
	"github.com/iho/walletd/internal/infrastructure/eventpublisher"
	"github.com/iho/walletd/internal/infrastructure/logger"
	"github.com/iho/walletd/internal/infrastructure/metrics"
	"github.com/iho/walletd/internal/infrastructure/postgres"
	"github.com/iho/walletd/internal/infrastructure/redis"
	"github.com/iho/walletd/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if !cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}

	// Use cases
	m := metrics.New()
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, accountRepo, outboxRepo, cache, idGen, m, log)
	ledgerUC := usecase.NewLedgerUseCase(txManager, walletRepo, accountRepo, transactionRepo, outboxRepo, cache, idGen, m, log)
	escrowUC := usecase.NewEscrowUseCase(ledgerUC, log)
	allocationUC := usecase.NewAllocationUseCase(ledgerUC, log)
	verifyUC := usecase.NewVerifyUseCase(walletRepo, accountRepo, transactionRepo, m, log)

	// Outbox publisher
	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewRedisPublisher(redisClient, cfg.OutboxChannel),
			Retrier:    postgresRepo.NewRetrier(log),
			Metrics:    m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	// Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:     handler.NewWalletHandler(walletUC, cfg.DefaultCurrency),
		LedgerHandler:     handler.NewLedgerHandler(ledgerUC),
		EscrowHandler:     handler.NewEscrowHandler(escrowUC),
		AllocationHandler: handler.NewAllocationHandler(allocationUC),
		VerifyHandler:     handler.NewVerifyHandler(verifyUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		Logger:            log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
