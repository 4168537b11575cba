package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/weather"
)

func newOpenMeteoTestProvider(srv *httptest.Server) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL + "/forecast"
	p.airBaseURL = srv.URL + "/air-quality"
	return p
}

func TestOpenMeteoHistoricalConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-05-04", q.Get("start_date"))
		assert.Equal(t, "2024-05-04", q.Get("end_date"))
		assert.Equal(t, "kmh", q.Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{"hourly":{
			"time": ["2024-05-04T05:00", "2024-05-04T06:00"],
			"temperature_2m": [8.1, 9.4],
			"apparent_temperature": [6.0, 7.7],
			"relative_humidity_2m": [90, 85],
			"wind_speed_10m": [5.0, 7.2],
			"wind_direction_10m": [100, 120],
			"weather_code": [3, 61]
		}}`))
	}))
	defer srv.Close()

	at := time.Date(2024, 5, 4, 6, 45, 0, 0, time.UTC)
	c, err := newOpenMeteoTestProvider(srv).HistoricalConditions(context.Background(), 55.75, 37.61, at, athlete.LanguageEnglish)
	require.NoError(t, err)
	require.Equal(t, weather.Conditions{
		Code:       61,
		Text:       "Slight rain",
		TempC:      9.4,
		FeelsLikeC: 7.7,
		Humidity:   85,
		WindKph:    7.2,
		WindDegree: 120,
		Icon:       weather.IconShowers,
	}, c)
}

func TestOpenMeteoHistoricalConditionsGaps(t *testing.T) {
	cases := map[string]string{
		"hour absent": `{"hourly":{"time":["2024-05-04T05:00"],"temperature_2m":[1],"apparent_temperature":[1],
			"relative_humidity_2m":[1],"wind_speed_10m":[1],"wind_direction_10m":[1],"weather_code":[0]}}`,
		"null sample": `{"hourly":{"time":["2024-05-04T06:00"],"temperature_2m":[null],"apparent_temperature":[1],
			"relative_humidity_2m":[1],"wind_speed_10m":[1],"wind_direction_10m":[1],"weather_code":[0]}}`,
		"short series": `{"hourly":{"time":["2024-05-04T06:00"],"temperature_2m":[1]}}`,
		"unknown code": `{"hourly":{"time":["2024-05-04T06:00"],"temperature_2m":[1],"apparent_temperature":[1],
			"relative_humidity_2m":[1],"wind_speed_10m":[1],"wind_direction_10m":[1],"weather_code":[42]}}`,
	}
	at := time.Date(2024, 5, 4, 6, 0, 0, 0, time.UTC)
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newOpenMeteoTestProvider(srv).HistoricalConditions(context.Background(), 1, 1, at, athlete.LanguageEnglish)
			require.Error(t, err)
		})
	}
}

func TestOpenMeteoCurrentAirQuality(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air-quality", r.URL.Path)
		_, _ = w.Write([]byte(`{"current":{
			"us_aqi": 120, "pm2_5": 30.5, "sulphur_dioxide": 2.1,
			"nitrogen_dioxide": 20.4, "ozone": 80.0, "carbon_monoxide": 310.0
		}}`))
	}))
	defer srv.Close()

	aq, err := newOpenMeteoTestProvider(srv).CurrentAirQuality(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, weather.AirQuality{Index: 3, PM25: 30.5, SO2: 2.1, NO2: 20.4, O3: 80, CO: 310}, aq)
}

func TestEPACategory(t *testing.T) {
	cases := map[float64]int{0: 1, 50: 1, 51: 2, 100: 2, 150: 3, 200: 4, 300: 5, 301: 6, 500: 6}
	for aqi, want := range cases {
		assert.Equal(t, want, epaCategory(aqi), "aqi %v", aqi)
	}
}

func TestWMOText(t *testing.T) {
	text, ok := wmoText(95, athlete.LanguageRussian)
	require.True(t, ok)
	require.Equal(t, "Гроза", text)

	text, ok = wmoText(95, athlete.LanguageEnglish)
	require.True(t, ok)
	require.Equal(t, "Thunderstorm", text)
	require.Equal(t, weather.IconThunder, wmoIcon(95))
}
