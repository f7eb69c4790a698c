package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/expensesplit/internal/adapter/api"
	httpAdapter "github.com/iho/expensesplit/internal/adapter/http"
	"github.com/iho/expensesplit/internal/adapter/http/handler"
	"github.com/iho/expensesplit/internal/adapter/http/middleware"
	"github.com/iho/expensesplit/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/expensesplit/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/expensesplit/internal/adapter/repository/redis"
	"github.com/iho/expensesplit/internal/infrastructure/config"
	"github.com/iho/expensesplit/internal/infrastructure/logger"
	"github.com/iho/expensesplit/internal/infrastructure/metrics"
	"github.com/iho/expensesplit/internal/infrastructure/postgres"
	"github.com/iho/expensesplit/internal/infrastructure/redis"
	"github.com/iho/expensesplit/internal/usecase"
)

const limiterCleanupInterval = 10 * time.Minute

// selectionStore is a SelectionStore that can report its health.
type selectionStore interface {
	usecase.SelectionStore
	handler.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, closeStore, err := buildSelectionStore(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize API client
	client := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  log,
		Metrics: m,
	})

	// Initialize use cases
	query := usecase.NewTransactionQuery(usecase.TransactionQueryConfig{
		API:          client,
		StaleTime:    cfg.QueryStaleTime,
		Retries:      cfg.QueryRetries,
		RetryDelay:   cfg.QueryRetryDelay,
		FetchTimeout: cfg.QueryFetchTimeout,
		Logger:       log,
		Metrics:      m,
	})
	selectionUC := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:    usecase.SelectionMode(cfg.SelectionMode),
		Store:   store,
		API:     client,
		Query:   query,
		Logger:  log,
		Metrics: m,
	})
	transactionsUC := usecase.NewTransactionsUseCase(query, selectionUC)
	healthQuery := usecase.NewHealthQuery(client, cfg.QueryRetryDelay, log)

	// Create router
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		go rateLimiter.Run(ctx, limiterCleanupInterval)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionsUC),
		HealthHandler:      handler.NewHealthHandler(healthQuery, store, cfg.SelectionStore),
		Logger:             log,
		HTTPMetrics:        middleware.NewHTTPMetrics(reg),
		RateLimiter:        rateLimiter,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("api", cfg.APIBaseURL).
			Str("selection_mode", cfg.SelectionMode).
			Str("selection_store", cfg.SelectionStore).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildSelectionStore connects the configured selection store backend.
// The returned func releases its connections.
func buildSelectionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (selectionStore, func(), error) {
	switch cfg.SelectionStore {
	case config.StoreMemory:
		return memory.NewSelectionStore(), func() {}, nil

	case config.StoreRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info().Msg("connected to redis")
		return redisRepo.NewSelectionStore(client, m), func() { client.Close() }, nil

	case config.StorePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")
		return postgresRepo.NewSelectionStore(pool, postgresRepo.NewRetrier(log), m), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown selection store %q", cfg.SelectionStore)
	}
}
