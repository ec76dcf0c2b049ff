package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/medly/scheduleconsole/internal/adapters/backend"
	"github.com/medly/scheduleconsole/internal/adapters/cache"
	"github.com/medly/scheduleconsole/internal/adapters/events"
	"github.com/medly/scheduleconsole/internal/api/handlers"
	"github.com/medly/scheduleconsole/internal/api/middleware"
	"github.com/medly/scheduleconsole/internal/api/routes"
	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/infrastructure/clients/backendapi"
	"github.com/medly/scheduleconsole/internal/infrastructure/clients/redis"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	"github.com/medly/scheduleconsole/pkg/config"
)

const (
	memoryCacheSize = 10000
	reapInterval    = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the schedule console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Redis is optional; without it sessions and events stay in process
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("redis unavailable, using in-memory cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
		}
	}
	if cacheProvider == nil {
		memoryCache, err := cache.NewMemoryAdapter(memoryCacheSize)
		if err != nil {
			return fmt.Errorf("failed to create memory cache: %w", err)
		}
		cacheProvider = memoryCache
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	backendClient := backendapi.NewClient(cfg.Backend.BackendOrigin(), cfg.Backend.Timeout, backendapi.WithMetrics(metrics))
	scheduleBackend := backend.NewBreakerBackend(backendClient, backend.DefaultBreakerConfig())

	bulkService := services.NewBulkAdjustService(scheduleBackend, metrics)
	consoleService := services.NewConsoleService(scheduleBackend, bulkService, cacheProvider, eventBus, metrics, services.ConsoleConfig{
		PixelsPerHour:   cfg.Schedule.PixelsPerHour,
		RefreshInterval: cfg.Schedule.RefreshInterval,
		StrictOrdering:  cfg.Schedule.StrictOrdering,
		SessionTTL:      cfg.Schedule.SessionTTL,
		Location:        cfg.Schedule.Location(),
	})
	defer consoleService.Close()
	consoleService.StartReaper(ctx, reapInterval)

	patientService := services.NewPatientService(scheduleBackend, cacheProvider, 0)

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	proxy, err := handlers.NewBackendProxy(cfg.Backend.BackendOrigin())
	if err != nil {
		return fmt.Errorf("failed to create backend proxy: %w", err)
	}

	router := routes.NewRouter(
		consoleService,
		handlers.NewConsoleHandler(),
		handlers.NewPatientHandler(patientService),
		handlers.NewSSEHandler(eventBus, handlers.DefaultHeartbeat),
		routes.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			SecureCookies:  !cfg.IsDev(),
			RateLimiter:    rateLimiter,
			BackendProxy:   proxy,
		},
		metrics,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// No write timeout: the event stream stays open for the life of the page
	server := &http.Server{
		Addr:        addr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("backend", cfg.Backend.BackendOrigin()).
			Str("env", cfg.Env).
			Msg("schedule console listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
		logger.Info().Msg("shutting down server")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Int("sessions", consoleService.SessionCount()).Msg("server exited")
	return nil
}
