package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/httpx"
	"github.com/i474232898/activity-weather/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  httpx.Doer
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client httpx.Doer, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		client:  client,
		circuit: httpx.NewBreaker("weatherapi"),
	}
}

// WithBaseURL points the provider at another API root, e.g. a local mirror.
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPICondition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

type weatherAPIHour struct {
	TempC      *float64            `json:"temp_c"`
	FeelsLikeC *float64            `json:"feelslike_c"`
	Humidity   *float64            `json:"humidity"`
	WindKph    *float64            `json:"wind_kph"`
	WindDegree *float64            `json:"wind_degree"`
	Condition  weatherAPICondition `json:"condition"`
}

func (p *WeatherAPIProvider) HistoricalConditions(ctx context.Context, lat, lon float64, at time.Time, lang athlete.Language) (weather.Conditions, error) {
	if p.apiKey == "" {
		return weather.Conditions{}, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
	}

	at = at.UTC()
	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", coord(lat)+","+coord(lon))
	values.Set("dt", at.Format(time.DateOnly))
	values.Set("hour", strconv.Itoa(at.Hour()))
	values.Set("lang", string(lang))

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []weatherAPIHour `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL+"/history.json", values, &payload); err != nil {
		return weather.Conditions{}, err
	}

	days := payload.Forecast.ForecastDay
	if len(days) == 0 || len(days[0].Hour) == 0 {
		return weather.Conditions{}, errNoSample
	}
	h := days[0].Hour[0]
	if h.TempC == nil || h.FeelsLikeC == nil || h.Humidity == nil || h.WindKph == nil ||
		h.WindDegree == nil || h.Condition.Text == "" {
		return weather.Conditions{}, errMissingData
	}

	return weather.Conditions{
		Code:       h.Condition.Code,
		Text:       h.Condition.Text,
		TempC:      *h.TempC,
		FeelsLikeC: *h.FeelsLikeC,
		Humidity:   *h.Humidity,
		WindKph:    *h.WindKph,
		WindDegree: *h.WindDegree,
		Icon:       weatherAPIIcons[h.Condition.Code],
	}, nil
}

func (p *WeatherAPIProvider) CurrentAirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	if p.apiKey == "" {
		return weather.AirQuality{}, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", coord(lat)+","+coord(lon))
	values.Set("aqi", "yes")

	var payload struct {
		Current struct {
			AirQuality *struct {
				Index *int    `json:"us-epa-index"`
				PM25  float64 `json:"pm2_5"`
				SO2   float64 `json:"so2"`
				NO2   float64 `json:"no2"`
				O3    float64 `json:"o3"`
				CO    float64 `json:"co"`
			} `json:"air_quality"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL+"/current.json", values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	aq := payload.Current.AirQuality
	if aq == nil || aq.Index == nil {
		return weather.AirQuality{}, errMissingData
	}
	return weather.AirQuality{
		Index: *aq.Index,
		PM25:  aq.PM25,
		SO2:   aq.SO2,
		NO2:   aq.NO2,
		O3:    aq.O3,
		CO:    aq.CO,
	}, nil
}

// weatherAPIIcons maps WeatherAPI condition codes to pictograms.
var weatherAPIIcons = func() map[int]weather.Icon {
	groups := map[weather.Icon][]int{
		weather.IconClear:        {1000},
		weather.IconMostlyClear:  {1003},
		weather.IconCloudy:       {1006},
		weather.IconFog:          {1030},
		weather.IconOvercast:     {1135, 1147},
		weather.IconShowers:      {1063, 1180, 1183, 1186},
		weather.IconRain:         {1150, 1153, 1168, 1169, 1189, 1192, 1195, 1198, 1201, 1240, 1243, 1246, 1249},
		weather.IconThunder:      {1087, 1273},
		weather.IconThunderstorm: {1276},
		weather.IconSnow: {1066, 1069, 1072, 1114, 1117, 1204, 1207, 1210, 1213, 1216, 1219, 1222, 1225,
			1237, 1252, 1255, 1258, 1261, 1264, 1279, 1282},
	}
	m := make(map[int]weather.Icon)
	for icon, codes := range groups {
		for _, code := range codes {
			m[code] = icon
		}
	}
	return m
}()
