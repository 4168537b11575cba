package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// Provider abstracts a weather data source (e.g. WeatherAPI, Open-Meteo, OpenWeatherMap).
type Provider interface {
	Name() string
	// HistoricalConditions returns the hourly sample covering at.
	HistoricalConditions(ctx context.Context, lat, lon float64, at time.Time, lang athlete.Language) (Conditions, error)
	// CurrentAirQuality returns the latest air-quality reading; historical
	// air quality is not generally available.
	CurrentAirQuality(ctx context.Context, lat, lon float64) (AirQuality, error)
}

// DegradedDataError records a lookup that could not produce usable data.
// Lookup never returns it; it is logged and replaced by an empty fragment.
type DegradedDataError struct {
	Lookup   string
	Provider string
	Err      error
}

func (e *DegradedDataError) Error() string {
	return fmt.Sprintf("weather: %s via %s: %v", e.Lookup, e.Provider, e.Err)
}

func (e *DegradedDataError) Unwrap() error {
	return e.Err
}
