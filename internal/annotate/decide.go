// Package annotate decides whether and how to annotate an activity with
// weather data, and carries the decision out.
package annotate

import (
	"strings"
	"time"
	"unicode"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/common"
	"github.com/i474232898/activity-weather/internal/strava"
	"github.com/i474232898/activity-weather/internal/weather"
)

// Kind classifies an Outcome.
type Kind string

const (
	KindSkipped            Kind = "skipped"
	KindTitleUpdated       Kind = "title_updated"
	KindDescriptionUpdated Kind = "description_updated"
)

// Skip reasons.
const (
	ReasonManualOrIndoor     = "manual_or_indoor"
	ReasonAlreadyAnnotated   = "already_annotated"
	ReasonNoLocation         = "no_location"
	ReasonIconUnavailable    = "icon_unavailable_or_present"
	ReasonWeatherUnavailable = "weather_unavailable"
)

// DefaultAirQualityWindow is how long after an activity ends current air
// quality is still attributed to it.
const DefaultAirQualityWindow = 2 * time.Hour

// Action is the next step a Plan calls for.
type Action int

const (
	ActionSkip Action = iota
	ActionIcon
	ActionDescribe
)

// Plan is the result of Decide. A skip plan is final; icon and describe
// plans are completed into an Outcome once weather data is known.
type Plan struct {
	Action Action
	Reason string

	Lat, Lon float64
	// Midpoint is the instant weather is sampled for.
	Midpoint time.Time
	// IncludeAirQuality is set when current air quality is still
	// meaningful for the activity.
	IncludeAirQuality bool
	// StartTimeFallback is set when start_date could not be parsed and
	// now minus one hour was used instead.
	StartTimeFallback bool

	title       string
	description string
}

// Decide inspects a fetched activity and the athlete's preferences. It does
// no I/O. The checks run in order and the first match wins.
func Decide(a strava.Activity, prefs athlete.Preferences, now time.Time, airWindow time.Duration) Plan {
	if a.Manual || a.Indoor() {
		return skip(ReasonManualOrIndoor)
	}
	if common.HasAny(a.DescriptionText(), weather.Markers...) {
		return skip(ReasonAlreadyAnnotated)
	}
	lat, lon, ok := a.StartLocation()
	if !ok {
		return skip(ReasonNoLocation)
	}

	start, err := time.Parse(time.RFC3339, a.StartDate)
	fallback := err != nil
	if fallback {
		start = now.Add(-time.Hour)
	}
	elapsed := time.Duration(a.ElapsedTime) * time.Second

	p := Plan{
		Action:            ActionDescribe,
		Lat:               lat,
		Lon:               lon,
		Midpoint:          start.Add(elapsed / 2),
		StartTimeFallback: fallback,
		title:             a.Name,
		description:       normalizeDescription(a.DescriptionText()),
	}
	if prefs.ShowIcon {
		p.Action = ActionIcon
		return p
	}
	p.IncludeAirQuality = prefs.ShowAirQuality && !now.After(start.Add(elapsed).Add(airWindow))
	return p
}

// Outcome is the result of one annotation attempt.
type Outcome struct {
	Kind        Kind
	Reason      string
	Title       string
	Description string
}

// Update returns the upstream mutation for o. Skipped outcomes yield an
// empty update.
func (o Outcome) Update() strava.ActivityUpdate {
	switch o.Kind {
	case KindTitleUpdated:
		title := o.Title
		return strava.ActivityUpdate{Name: &title}
	case KindDescriptionUpdated:
		description := o.Description
		return strava.ActivityUpdate{Description: &description}
	default:
		return strava.ActivityUpdate{}
	}
}

// Skipped reports whether o leaves the activity untouched.
func (o Outcome) Skipped() bool {
	return o.Kind == KindSkipped
}

// Skip returns the outcome of a skip plan.
func (p Plan) Skip() Outcome {
	return Outcome{Kind: KindSkipped, Reason: p.Reason}
}

// WithIcon completes an icon plan.
func (p Plan) WithIcon(icon weather.Icon) Outcome {
	if icon == weather.IconNone || strings.HasPrefix(p.title, string(icon)) {
		return Outcome{Kind: KindSkipped, Reason: ReasonIconUnavailable}
	}
	return Outcome{Kind: KindTitleUpdated, Title: string(icon) + " " + p.title}
}

// WithFragments completes a describe plan.
func (p Plan) WithFragments(weatherFragment, airQualityFragment string) Outcome {
	if weatherFragment == "" && airQualityFragment == "" {
		return Outcome{Kind: KindSkipped, Reason: ReasonWeatherUnavailable}
	}
	return Outcome{
		Kind:        KindDescriptionUpdated,
		Description: p.description + weatherFragment + airQualityFragment,
	}
}

func skip(reason string) Plan {
	return Plan{Action: ActionSkip, Reason: reason}
}

// normalizeDescription trims trailing whitespace and ends a non-empty
// description with a line break.
func normalizeDescription(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if s == "" {
		return ""
	}
	return s + "\n"
}
