package weather

import (
	"github.com/i474232898/activity-weather/internal/athlete"
)

// Icon is one of the fixed pictograms that may prefix an activity title.
type Icon string

const (
	IconNone         Icon = ""
	IconClear        Icon = "☀️"
	IconMostlyClear  Icon = "🌤"
	IconCloudy       Icon = "☁"
	IconOvercast     Icon = "☁️"
	IconFog          Icon = "😶‍🌫️"
	IconShowers      Icon = "🌦"
	IconRain         Icon = "🌧"
	IconSnow         Icon = "🌨"
	IconThunder      Icon = "🌩"
	IconThunderstorm Icon = "⛈️"
)

// Conditions is a provider's normalized hourly sample. Values are metric:
// °C for temperatures and km/h for wind speed.
type Conditions struct {
	Code       int
	Text       string
	TempC      float64
	FeelsLikeC float64
	Humidity   float64
	WindKph    float64
	WindDegree float64
	Icon       Icon
}

// AirQuality is a normalized current air-quality reading. Index follows the
// US EPA scale: 1 good .. 6 hazardous. Concentrations are μg/m³.
type AirQuality struct {
	Index int
	PM25  float64
	SO2   float64
	NO2   float64
	O3    float64
	CO    float64
}

// Options selects which segments a weather fragment contains and how it
// is phrased.
type Options struct {
	Language athlete.Language
	Units    athlete.Units
	Humidity bool
	Wind     bool
}

// OptionsFrom derives formatting options from athlete preferences.
func OptionsFrom(p athlete.Preferences) Options {
	return Options{
		Language: p.Language,
		Units:    p.Units,
		Humidity: p.ShowHumidity,
		Wind:     p.ShowWind,
	}
}
