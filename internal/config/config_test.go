package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "client-secret")
	t.Setenv("STRAVA_WEBHOOK_TOKEN", "verify-token")
	t.Setenv("WEBHOOK_SECRET", "123abc")
	t.Setenv("API_WEATHER_KEY", "weather-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "https://www.strava.com/api/v3", cfg.StravaAPIURL)
	require.Equal(t, "https://www.strava.com/oauth", cfg.StravaOAuthURL)
	require.Equal(t, "X-Hub-Signature", cfg.WebhookSignatureHeader)
	require.Equal(t, []string{"weatherapi"}, cfg.WeatherProviders)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, time.Minute, cfg.AnnotateTimeout)
	require.Equal(t, time.Minute, cfg.TokenExpiryMargin)
	require.Equal(t, 2*time.Hour, cfg.AirQualityWindow)
	require.Equal(t, time.Hour, cfg.SubscriptionCheckInterval)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WEATHER_PROVIDER", "OpenMeteo, weatherapi")
	t.Setenv("AIR_QUALITY_WINDOW", "90m")
	t.Setenv("STRAVA_API_URL", "http://localhost:9000/api/v3/")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"openmeteo", "weatherapi"}, cfg.WeatherProviders)
	require.Equal(t, 90*time.Minute, cfg.AirQualityWindow)
	require.Equal(t, "http://localhost:9000/api/v3", cfg.StravaAPIURL)
	require.Equal(t, 3, cfg.RedisDB)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing webhook secret": {"WEBHOOK_SECRET": ""},
		"missing client id":      {"STRAVA_CLIENT_ID": " "},
		"bad duration":           {"HTTP_TIMEOUT": "ten seconds"},
		"negative duration":      {"ANNOTATE_TIMEOUT": "-1s"},
		"sub-minute check":       {"SUBSCRIPTION_CHECK_INTERVAL": "30s"},
		"unknown provider":       {"WEATHER_PROVIDER": "darksky"},
		"empty provider list":    {"WEATHER_PROVIDER": " , "},
		"key needed":             {"WEATHER_PROVIDER": "openweather", "API_WEATHER_KEY": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadKeylessProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("API_WEATHER_KEY", "")
	t.Setenv("WEATHER_PROVIDER", "openmeteo")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"openmeteo"}, cfg.WeatherProviders)
}
