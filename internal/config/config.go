package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string
	Env  string

	StravaClientID     string
	StravaClientSecret string
	StravaAPIURL       string
	StravaOAuthURL     string
	OAuthRedirectURL   string

	// WebhookVerifyToken answers the subscription handshake.
	WebhookVerifyToken string
	// WebhookSecret keys the HMAC over delivery bodies.
	WebhookSecret          string
	WebhookSignatureHeader string

	// WeatherProviders are tried in order.
	WeatherProviders []string
	WeatherAPIKey    string

	HTTPTimeout       time.Duration // per outbound call
	AnnotateTimeout   time.Duration // per webhook delivery
	TokenExpiryMargin time.Duration
	AirQualityWindow  time.Duration

	SubscriptionCheckInterval time.Duration

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL string

	// RedisAddr enables the distributed per-athlete lock.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

var knownProviders = map[string]bool{
	"weatherapi":  true,
	"openmeteo":   true,
	"openweather": true,
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{
		Port:                   getenvDefault("PORT", "8080"),
		Env:                    getenvDefault("APP_ENV", "development"),
		StravaAPIURL:           strings.TrimRight(getenvDefault("STRAVA_API_URL", "https://www.strava.com/api/v3"), "/"),
		StravaOAuthURL:         strings.TrimRight(getenvDefault("STRAVA_OAUTH_URL", "https://www.strava.com/oauth"), "/"),
		OAuthRedirectURL:       getenvDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/authorization_successful"),
		WebhookSignatureHeader: getenvDefault("WEBHOOK_SIGNATURE_HEADER", "X-Hub-Signature"),
		WeatherAPIKey:          os.Getenv("API_WEATHER_KEY"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getenvInt("REDIS_DB", 0),
	}

	required := []struct {
		key string
		dst *string
	}{
		{"STRAVA_CLIENT_ID", &cfg.StravaClientID},
		{"STRAVA_CLIENT_SECRET", &cfg.StravaClientSecret},
		{"STRAVA_WEBHOOK_TOKEN", &cfg.WebhookVerifyToken},
		{"WEBHOOK_SECRET", &cfg.WebhookSecret},
	}
	for _, r := range required {
		v := strings.TrimSpace(os.Getenv(r.key))
		if v == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
		*r.dst = v
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"ANNOTATE_TIMEOUT", "60s", &cfg.AnnotateTimeout},
		{"TOKEN_EXPIRY_MARGIN", "60s", &cfg.TokenExpiryMargin},
		{"AIR_QUALITY_WINDOW", "2h", &cfg.AirQualityWindow},
		{"SUBSCRIPTION_CHECK_INTERVAL", "1h", &cfg.SubscriptionCheckInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", d.key)
		}
		*d.dst = v
	}
	if cfg.SubscriptionCheckInterval < time.Minute {
		return nil, fmt.Errorf("invalid SUBSCRIPTION_CHECK_INTERVAL: must be at least 1m")
	}

	providers, err := parseProviders(getenvDefault("WEATHER_PROVIDER", "weatherapi"))
	if err != nil {
		return nil, err
	}
	cfg.WeatherProviders = providers
	for _, p := range providers {
		if p != "openmeteo" && cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("API_WEATHER_KEY is required for weather provider %q", p)
		}
	}

	return cfg, nil
}

func parseProviders(raw string) ([]string, error) {
	var providers []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !knownProviders[name] {
			return nil, fmt.Errorf("unknown weather provider %q", name)
		}
		providers = append(providers, name)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("WEATHER_PROVIDER must name at least one provider")
	}
	return providers, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
