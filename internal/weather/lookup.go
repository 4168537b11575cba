package weather

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/observability"
)

var (
	ErrNoProviders     = errors.New("no weather providers configured")
	ErrAirQualityScale = errors.New("air quality index out of range")
)

// Lookup turns coordinates and instants into annotation fragments. Providers
// are tried in order; the first usable answer wins. Failures never escape:
// they are logged and the fragment is empty.
type Lookup struct {
	providers []Provider
	logger    *zap.Logger
}

// NewLookup constructs a Lookup over providers in priority order.
func NewLookup(logger *zap.Logger, providers ...Provider) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{providers: providers, logger: logger}
}

// WeatherFragment describes conditions at lat, lon around at.
func (l *Lookup) WeatherFragment(ctx context.Context, lat, lon float64, at time.Time, opts Options) string {
	c, err := l.conditions(ctx, lat, lon, at, opts.Language)
	if err != nil {
		l.degraded("weather", err)
		return ""
	}
	return FormatConditions(c, opts)
}

// AirQualityFragment describes the current air quality at lat, lon.
func (l *Lookup) AirQualityFragment(ctx context.Context, lat, lon float64, lang athlete.Language) string {
	if len(l.providers) == 0 {
		l.degraded("air_quality", &DegradedDataError{Lookup: "air_quality", Provider: "none", Err: ErrNoProviders})
		return ""
	}

	var lastErr error
	for _, p := range l.providers {
		aq, err := p.CurrentAirQuality(ctx, lat, lon)
		if err != nil {
			lastErr = &DegradedDataError{Lookup: "air_quality", Provider: p.Name(), Err: err}
			continue
		}
		fragment, ok := FormatAirQuality(aq, lang)
		if !ok {
			lastErr = &DegradedDataError{Lookup: "air_quality", Provider: p.Name(), Err: ErrAirQualityScale}
			continue
		}
		return fragment
	}
	l.degraded("air_quality", lastErr)
	return ""
}

// Icon returns the pictogram for conditions at lat, lon around at, or
// IconNone when the condition is unrecognized or the lookup fails.
func (l *Lookup) Icon(ctx context.Context, lat, lon float64, at time.Time) Icon {
	c, err := l.conditions(ctx, lat, lon, at, athlete.DefaultLanguage)
	if err != nil {
		l.degraded("icon", err)
		return IconNone
	}
	if c.Icon == IconNone {
		l.logger.Debug("no icon for condition", zap.Int("code", c.Code))
		return IconNone
	}
	return c.Icon
}

func (l *Lookup) conditions(ctx context.Context, lat, lon float64, at time.Time, lang athlete.Language) (Conditions, error) {
	if len(l.providers) == 0 {
		return Conditions{}, &DegradedDataError{Lookup: "weather", Provider: "none", Err: ErrNoProviders}
	}

	var lastErr error
	for _, p := range l.providers {
		c, err := p.HistoricalConditions(ctx, lat, lon, at, lang)
		if err != nil {
			lastErr = &DegradedDataError{Lookup: "weather", Provider: p.Name(), Err: err}
			l.logger.Debug("provider failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		return c, nil
	}
	return Conditions{}, lastErr
}

func (l *Lookup) degraded(lookup string, err error) {
	observability.RecordWeatherDegraded(lookup)
	l.logger.Warn("weather lookup degraded", zap.String("lookup", lookup), zap.Error(err))
}
