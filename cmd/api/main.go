package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/slotbook/internal/adapters/cache"
	"github.com/zatekoja/slotbook/internal/adapters/events"
	sessionstore "github.com/zatekoja/slotbook/internal/adapters/session"
	"github.com/zatekoja/slotbook/internal/api/handlers"
	"github.com/zatekoja/slotbook/internal/api/routes"
	"github.com/zatekoja/slotbook/internal/application/services"
	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/clients/api"
	redisclient "github.com/zatekoja/slotbook/internal/infrastructure/clients/redis"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	"github.com/zatekoja/slotbook/internal/session"
	"github.com/zatekoja/slotbook/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.LogLevel)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	var redisClient *redisclient.Client
	if cfg.UsesRedis() {
		redisClient, err = redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Redis client; falling back to local stores")
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	store := newSessionStore(cfg, redisClient)
	sess := session.New(store)
	if err := sess.Hydrate(ctx); err != nil {
		logger.Warn().Err(err).Msg("Persisted session could not be restored")
	}

	responseCache, err := newResponseCache(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize response cache")
	}

	client := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.Timeout,
		sess,
		api.WithResponseCache(responseCache, cfg.API.CacheMaxAge),
		api.WithMetrics(metrics),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithSessionExpired(cfg.API.LoginPath, func(loginPath string) {
			logger.Warn().Str("login_path", loginPath).Msg("Marketplace session expired; sign in again")
		}),
	)

	if !sess.Authenticated() && cfg.Auth.Email != "" {
		if _, err := client.Login(ctx, entities.Credentials{Email: cfg.Auth.Email, Password: cfg.Auth.Password}); err != nil {
			logger.Warn().Err(err).Str("email", cfg.Auth.Email).Msg("Automatic login failed")
		} else {
			logger.Info().Str("email", cfg.Auth.Email).Msg("Signed in to marketplace backend")
		}
	}

	loc := cfg.Scheduling.Location()

	// Initialize services
	availabilityService := services.NewAvailabilityService(client, client, loc)
	eventBus := newEventBus(cfg, redisClient)

	appointmentService := services.NewAppointmentService(client, client, loc).WithEventBus(eventBus)
	reviewService := services.NewReviewService(client)
	dashboardService := services.NewDashboardService(client)

	// Initialize handlers
	router := routes.NewRouter(
		handlers.NewSessionHandler(client, sess),
		handlers.NewSlotHandler(availabilityService),
		handlers.NewAppointmentHandler(appointmentService, sess),
		handlers.NewReviewHandler(reviewService, sess),
		handlers.NewCatalogHandler(client, dashboardService),
		handlers.NewEventStreamHandler(eventBus, metrics),
		routes.Options{
			LoginPath:      cfg.API.LoginPath,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metrics,
		},
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.API.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Open event streams end when the bus closes their subscriptions
	server.RegisterOnShutdown(func() {
		if err := eventBus.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing event bus")
		}
	})

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server stopped")
}

func newSessionStore(cfg *config.Config, redisClient *redisclient.Client) providers.SessionStore {
	switch cfg.Auth.SessionStore {
	case "memory":
		return nil
	case "redis":
		if redisClient != nil {
			return sessionstore.NewRedisStore(redisClient, cfg.Auth.SessionKey)
		}
	}
	return sessionstore.NewFileStore(cfg.Auth.SessionFile)
}

func newResponseCache(cfg *config.Config, redisClient *redisclient.Client) (providers.ResponseCache, error) {
	if cfg.Cache.Backend == "redis" && redisClient != nil {
		return cache.NewRedisAdapter(redisClient, cfg.Cache.KeyPrefix, cfg.API.CacheMaxAge), nil
	}
	return cache.NewMemoryAdapter(cfg.Cache.Size)
}

func newEventBus(cfg *config.Config, redisClient *redisclient.Client) providers.EventBus {
	if cfg.Events.Backend == "redis" && redisClient != nil {
		return events.NewRedisEventBus(redisClient)
	}
	return events.NewMemoryEventBus()
}
