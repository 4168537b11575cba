package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/annotate"
	httpapi "github.com/i474232898/activity-weather/internal/api/http"
	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/auth"
	"github.com/i474232898/activity-weather/internal/config"
	"github.com/i474232898/activity-weather/internal/logging"
	"github.com/i474232898/activity-weather/internal/scheduler"
	"github.com/i474232898/activity-weather/internal/store"
	"github.com/i474232898/activity-weather/internal/strava"
	"github.com/i474232898/activity-weather/internal/weather"
	"github.com/i474232898/activity-weather/internal/weather/providers"
	"github.com/i474232898/activity-weather/internal/webhook"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Shared HTTP client for outbound calls; the timeout bounds every call.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	athletes, locker, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	onboarding := auth.NewOnboarding(athletes, locker, httpClient, cfg.StravaOAuthURL,
		cfg.StravaClientID, cfg.StravaClientSecret, cfg.OAuthRedirectURL)
	refresher := auth.NewHTTPRefresher(httpClient, onboarding.TokenURL(), cfg.StravaClientID, cfg.StravaClientSecret)
	tokens := auth.NewManager(athletes, locker, refresher,
		auth.WithExpiryMargin(cfg.TokenExpiryMargin),
		auth.WithLogger(logger.Named("auth")),
	)
	activities := strava.NewFactory(tokens, httpClient, cfg.StravaAPIURL)
	subscriptions := strava.NewSubscriptionChecker(httpClient, cfg.StravaAPIURL, cfg.StravaClientID, cfg.StravaClientSecret)

	var provs []weather.Provider
	for _, name := range cfg.WeatherProviders {
		switch name {
		case "weatherapi":
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
		case "openmeteo":
			provs = append(provs, providers.NewOpenMeteoProvider(httpClient))
		case "openweather":
			provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.WeatherAPIKey))
		}
	}
	lookup := weather.NewLookup(logger.Named("weather"), provs...)

	annotator := annotate.NewAnnotator(activities, athletes, lookup,
		annotate.WithAirQualityWindow(cfg.AirQualityWindow),
		annotate.WithLogger(logger.Named("annotate")),
	)
	dispatcher := annotate.NewDispatcher(annotator, cfg.AnnotateTimeout, logger.Named("dispatch"))
	processor := webhook.NewProcessor(dispatcher, athletes, logger.Named("webhook"))

	// Scheduler that periodically checks the push subscription.
	sched := scheduler.New(subscriptions, cfg.SubscriptionCheckInterval, logger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "activity-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(httpapi.RequestLogger(logger.Named("http")))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Onboarding:      onboarding,
		Preferences:     athletes,
		Verifier:        webhook.NewVerifier(cfg.WebhookVerifyToken, cfg.WebhookSecret),
		Events:          processor,
		Subscriptions:   subscriptions,
		Sessions:        session.New(session.Config{Expiration: time.Hour, CookieHTTPOnly: true}),
		SignatureHeader: cfg.WebhookSignatureHeader,
		Logger:          logger.Named("http"),
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AnnotateTimeout+10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	// In-flight annotations finish before the store closes.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("annotations still running at shutdown", zap.Error(err))
	}
}

// openStore picks Postgres when DATABASE_URL is set and memory otherwise,
// and a Redis lock when REDIS_ADDR is set.
func openStore(cfg *config.AppConfig, logger *zap.Logger) (athlete.Store, athlete.Locker, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		athletes athlete.Store
		locker   athlete.Locker
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping database: %w", err)
		}
		closers = append(closers, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		athletes = pg
		locker = &store.KeyedLocker{}
		logger.Info("using postgres store")
	} else {
		mem := store.NewMemoryStore()
		athletes, locker = mem, mem
		logger.Warn("DATABASE_URL not set; credentials are kept in memory")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			closeAll()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		locker = store.NewRedisLocker(client, 30*time.Second)
		logger.Info("using redis athlete lock", zap.String("addr", cfg.RedisAddr))
	}

	return athletes, locker, closeAll, nil
}
