package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/httpx"
	"github.com/i474232898/activity-weather/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
// Historical conditions come from the One Call 3.0 timemachine endpoint.
type OpenWeatherProvider struct {
	name       string
	apiKey     string
	baseURL    string
	airBaseURL string
	client     httpx.Doer
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client httpx.Doer, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org/data/3.0/onecall/timemachine",
		airBaseURL: "https://api.openweathermap.org/data/2.5/air_pollution",
		client:     client,
		circuit:    httpx.NewBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) HistoricalConditions(ctx context.Context, lat, lon float64, at time.Time, lang athlete.Language) (weather.Conditions, error) {
	if p.apiKey == "" {
		return weather.Conditions{}, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lat", coord(lat))
	values.Set("lon", coord(lon))
	values.Set("dt", strconv.FormatInt(at.Unix(), 10))
	values.Set("lang", string(lang))

	var payload struct {
		Data []struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
			WindSpeed *float64 `json:"wind_speed"`
			WindDeg   *float64 `json:"wind_deg"`
			Weather   []struct {
				ID          int    `json:"id"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"data"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL, values, &payload); err != nil {
		return weather.Conditions{}, err
	}

	if len(payload.Data) == 0 {
		return weather.Conditions{}, errNoSample
	}
	d := payload.Data[0]
	if d.Temp == nil || d.FeelsLike == nil || d.Humidity == nil || d.WindSpeed == nil ||
		d.WindDeg == nil || len(d.Weather) == 0 || d.Weather[0].Description == "" {
		return weather.Conditions{}, errMissingData
	}

	return weather.Conditions{
		Code:       d.Weather[0].ID,
		Text:       d.Weather[0].Description,
		TempC:      *d.Temp,
		FeelsLikeC: *d.FeelsLike,
		Humidity:   *d.Humidity,
		// Metric units report wind in m/s.
		WindKph:    *d.WindSpeed * 3.6,
		WindDegree: *d.WindDeg,
		Icon:       openWeatherIcon(d.Weather[0].ID),
	}, nil
}

func (p *OpenWeatherProvider) CurrentAirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	if p.apiKey == "" {
		return weather.AirQuality{}, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("lat", coord(lat))
	values.Set("lon", coord(lon))

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components struct {
				CO   float64 `json:"co"`
				NO2  float64 `json:"no2"`
				O3   float64 `json:"o3"`
				SO2  float64 `json:"so2"`
				PM25 float64 `json:"pm2_5"`
			} `json:"components"`
		} `json:"list"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.airBaseURL, values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	if len(payload.List) == 0 || payload.List[0].Main.AQI == 0 {
		return weather.AirQuality{}, errMissingData
	}
	s := payload.List[0]
	// OpenWeatherMap's 1-5 scale lines up with the first five EPA categories.
	return weather.AirQuality{
		Index: s.Main.AQI,
		PM25:  s.Components.PM25,
		SO2:   s.Components.SO2,
		NO2:   s.Components.NO2,
		O3:    s.Components.O3,
		CO:    s.Components.CO,
	}, nil
}

// openWeatherIcon maps OpenWeatherMap condition ids to pictograms.
func openWeatherIcon(id int) weather.Icon {
	switch {
	case id == 202 || id == 212 || id == 221 || id == 232:
		return weather.IconThunderstorm
	case id >= 200 && id < 300:
		return weather.IconThunder
	case id >= 300 && id < 400, id == 500 || id == 501:
		return weather.IconShowers
	case id == 511:
		return weather.IconSnow
	case id >= 502 && id < 600:
		return weather.IconRain
	case id >= 600 && id < 700:
		return weather.IconSnow
	case id >= 700 && id < 800:
		return weather.IconFog
	case id == 800:
		return weather.IconClear
	case id == 801:
		return weather.IconMostlyClear
	case id == 802:
		return weather.IconCloudy
	case id == 803 || id == 804:
		return weather.IconOvercast
	default:
		return weather.IconNone
	}
}
