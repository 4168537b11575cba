package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/httpx"
	"github.com/i474232898/activity-weather/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name       string
	baseURL    string
	airBaseURL string
	client     httpx.Doer
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client httpx.Doer) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:       "openmeteo",
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		airBaseURL: "https://air-quality-api.open-meteo.com/v1/air-quality",
		client:     client,
		circuit:    httpx.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

const openMeteoHourly = "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code"

func (p *OpenMeteoProvider) HistoricalConditions(ctx context.Context, lat, lon float64, at time.Time, lang athlete.Language) (weather.Conditions, error) {
	at = at.UTC()
	day := at.Format(time.DateOnly)

	values := url.Values{}
	values.Set("latitude", coord(lat))
	values.Set("longitude", coord(lon))
	values.Set("start_date", day)
	values.Set("end_date", day)
	values.Set("hourly", openMeteoHourly)
	values.Set("timezone", "GMT")
	values.Set("wind_speed_unit", "kmh")

	var payload struct {
		Hourly struct {
			Time          []string   `json:"time"`
			Temperature   []*float64 `json:"temperature_2m"`
			Apparent      []*float64 `json:"apparent_temperature"`
			Humidity      []*float64 `json:"relative_humidity_2m"`
			WindSpeed     []*float64 `json:"wind_speed_10m"`
			WindDirection []*float64 `json:"wind_direction_10m"`
			WeatherCode   []*int     `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL, values, &payload); err != nil {
		return weather.Conditions{}, err
	}

	h := payload.Hourly
	want := at.Truncate(time.Hour).Format("2006-01-02T15:04")
	idx := -1
	for i, ts := range h.Time {
		if ts == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		return weather.Conditions{}, errNoSample
	}

	temp, ok1 := sampleAt(h.Temperature, idx)
	feels, ok2 := sampleAt(h.Apparent, idx)
	hum, ok3 := sampleAt(h.Humidity, idx)
	wind, ok4 := sampleAt(h.WindSpeed, idx)
	dir, ok5 := sampleAt(h.WindDirection, idx)
	code, ok6 := sampleAt(h.WeatherCode, idx)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return weather.Conditions{}, errMissingData
	}
	text, ok := wmoText(code, lang)
	if !ok {
		return weather.Conditions{}, fmt.Errorf("%w: unknown weather code %d", errMissingData, code)
	}

	return weather.Conditions{
		Code:       code,
		Text:       text,
		TempC:      temp,
		FeelsLikeC: feels,
		Humidity:   hum,
		WindKph:    wind,
		WindDegree: dir,
		Icon:       wmoIcon(code),
	}, nil
}

func (p *OpenMeteoProvider) CurrentAirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	values := url.Values{}
	values.Set("latitude", coord(lat))
	values.Set("longitude", coord(lon))
	values.Set("current", "us_aqi,pm2_5,sulphur_dioxide,nitrogen_dioxide,ozone,carbon_monoxide")

	var payload struct {
		Current struct {
			USAQI *float64 `json:"us_aqi"`
			PM25  *float64 `json:"pm2_5"`
			SO2   *float64 `json:"sulphur_dioxide"`
			NO2   *float64 `json:"nitrogen_dioxide"`
			O3    *float64 `json:"ozone"`
			CO    *float64 `json:"carbon_monoxide"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.airBaseURL, values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	c := payload.Current
	if c.USAQI == nil || c.PM25 == nil || c.SO2 == nil || c.NO2 == nil || c.O3 == nil || c.CO == nil {
		return weather.AirQuality{}, errMissingData
	}
	return weather.AirQuality{
		Index: epaCategory(*c.USAQI),
		PM25:  *c.PM25,
		SO2:   *c.SO2,
		NO2:   *c.NO2,
		O3:    *c.O3,
		CO:    *c.CO,
	}, nil
}

func sampleAt[T any](values []*T, i int) (T, bool) {
	var zero T
	if i >= len(values) || values[i] == nil {
		return zero, false
	}
	return *values[i], true
}

// epaCategory maps a US AQI value (0-500) onto the six EPA categories.
func epaCategory(aqi float64) int {
	switch {
	case aqi <= 50:
		return 1
	case aqi <= 100:
		return 2
	case aqi <= 150:
		return 3
	case aqi <= 200:
		return 4
	case aqi <= 300:
		return 5
	default:
		return 6
	}
}

func wmoIcon(code int) weather.Icon {
	switch {
	case code == 0:
		return weather.IconClear
	case code == 1:
		return weather.IconMostlyClear
	case code == 2:
		return weather.IconCloudy
	case code == 3:
		return weather.IconOvercast
	case code == 45 || code == 48:
		return weather.IconFog
	case code >= 51 && code <= 57, code == 61, code == 80:
		return weather.IconShowers
	case code >= 63 && code <= 67, code == 81 || code == 82:
		return weather.IconRain
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return weather.IconSnow
	case code == 95:
		return weather.IconThunder
	case code == 96 || code == 99:
		return weather.IconThunderstorm
	default:
		return weather.IconNone
	}
}

var wmoDescriptions = map[int][2]string{
	0:  {"Clear sky", "Ясно"},
	1:  {"Mainly clear", "Преимущественно ясно"},
	2:  {"Partly cloudy", "Переменная облачность"},
	3:  {"Overcast", "Пасмурно"},
	45: {"Fog", "Туман"},
	48: {"Depositing rime fog", "Изморозь"},
	51: {"Light drizzle", "Слабая морось"},
	53: {"Moderate drizzle", "Морось"},
	55: {"Dense drizzle", "Сильная морось"},
	56: {"Light freezing drizzle", "Слабая ледяная морось"},
	57: {"Dense freezing drizzle", "Сильная ледяная морось"},
	61: {"Slight rain", "Небольшой дождь"},
	63: {"Moderate rain", "Дождь"},
	65: {"Heavy rain", "Сильный дождь"},
	66: {"Light freezing rain", "Слабый ледяной дождь"},
	67: {"Heavy freezing rain", "Сильный ледяной дождь"},
	71: {"Slight snow fall", "Небольшой снег"},
	73: {"Moderate snow fall", "Снег"},
	75: {"Heavy snow fall", "Сильный снег"},
	77: {"Snow grains", "Снежные зёрна"},
	80: {"Slight rain showers", "Небольшой ливень"},
	81: {"Moderate rain showers", "Ливень"},
	82: {"Violent rain showers", "Сильный ливень"},
	85: {"Slight snow showers", "Небольшой снегопад"},
	86: {"Heavy snow showers", "Сильный снегопад"},
	95: {"Thunderstorm", "Гроза"},
	96: {"Thunderstorm with slight hail", "Гроза с небольшим градом"},
	99: {"Thunderstorm with heavy hail", "Гроза с сильным градом"},
}

func wmoText(code int, lang athlete.Language) (string, bool) {
	d, ok := wmoDescriptions[code]
	if !ok {
		return "", false
	}
	if lang == athlete.LanguageRussian {
		return d[1], true
	}
	return d[0], true
}
