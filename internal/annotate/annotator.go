package annotate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/observability"
	"github.com/i474232898/activity-weather/internal/strava"
	"github.com/i474232898/activity-weather/internal/weather"
)

// ActivityClients opens an authenticated client for one activity.
type ActivityClients interface {
	New(ctx context.Context, userID, activityID int64) (strava.ActivityAPI, error)
}

// PreferenceReader loads athlete preferences, falling back to defaults.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID int64) (athlete.Preferences, error)
}

// WeatherLookup produces annotation fragments. Implementations never fail;
// unusable data yields an empty result.
type WeatherLookup interface {
	WeatherFragment(ctx context.Context, lat, lon float64, at time.Time, opts weather.Options) string
	AirQualityFragment(ctx context.Context, lat, lon float64, lang athlete.Language) string
	Icon(ctx context.Context, lat, lon float64, at time.Time) weather.Icon
}

// Annotator annotates one activity per call. It holds no per-activity
// state, so calls may run concurrently and be repeated safely.
type Annotator struct {
	clients   ActivityClients
	prefs     PreferenceReader
	lookup    WeatherLookup
	airWindow time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option customizes an Annotator.
type Option func(*Annotator)

// WithAirQualityWindow overrides DefaultAirQualityWindow.
func WithAirQualityWindow(d time.Duration) Option {
	return func(a *Annotator) { a.airWindow = d }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Annotator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Annotator) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAnnotator(clients ActivityClients, prefs PreferenceReader, lookup WeatherLookup, opts ...Option) *Annotator {
	a := &Annotator{
		clients:   clients,
		prefs:     prefs,
		lookup:    lookup,
		airWindow: DefaultAirQualityWindow,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate fetches the activity, decides what to do and writes at most one
// mutation. Auth and upstream failures are returned; weather failures only
// shrink the annotation. A failed call never leaves a partial write.
func (a *Annotator) Annotate(ctx context.Context, userID, activityID int64) (Outcome, error) {
	log := a.logger.With(zap.Int64("athlete_id", userID), zap.Int64("activity_id", activityID))

	client, err := a.clients.New(ctx, userID, activityID)
	if err != nil {
		return Outcome{}, a.fail("auth", err)
	}

	activity, err := client.FetchActivity(ctx)
	if err != nil {
		return Outcome{}, a.fail("fetch", err)
	}

	prefs, err := a.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return Outcome{}, a.fail("preferences", fmt.Errorf("load preferences: %w", err))
	}

	plan := Decide(activity, prefs, a.now(), a.airWindow)
	if plan.StartTimeFallback {
		log.Warn("unparseable activity start, using now minus one hour",
			zap.String("start_date", activity.StartDate))
	}

	var outcome Outcome
	switch plan.Action {
	case ActionIcon:
		icon := a.lookup.Icon(ctx, plan.Lat, plan.Lon, plan.Midpoint)
		outcome = plan.WithIcon(icon)
	case ActionDescribe:
		weatherFragment := a.lookup.WeatherFragment(ctx, plan.Lat, plan.Lon, plan.Midpoint, weather.OptionsFrom(prefs))
		var airFragment string
		if plan.IncludeAirQuality {
			airFragment = a.lookup.AirQualityFragment(ctx, plan.Lat, plan.Lon, prefs.Language)
		}
		outcome = plan.WithFragments(weatherFragment, airFragment)
	default:
		outcome = plan.Skip()
	}

	if outcome.Skipped() {
		observability.RecordAnnotation(string(outcome.Kind), outcome.Reason)
		log.Info("annotation skipped", zap.String("reason", outcome.Reason))
		return outcome, nil
	}

	if err := client.ModifyActivity(ctx, outcome.Update()); err != nil {
		return Outcome{}, a.fail("modify", err)
	}

	observability.RecordAnnotation(string(outcome.Kind), "")
	log.Info("activity annotated", zap.String("kind", string(outcome.Kind)))
	return outcome, nil
}

func (a *Annotator) fail(stage string, err error) error {
	observability.RecordAnnotationFailure(stage)
	return fmt.Errorf("annotate %s: %w", stage, err)
}
