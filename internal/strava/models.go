package strava

import (
	"net/url"
)

// Activity is the subset of an upstream activity needed to decide on and
// build an annotation. It lives for one annotation attempt only.
type Activity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Manual      bool      `json:"manual"`
	Trainer     bool      `json:"trainer"`
	Type        string    `json:"type"`
	SportType   string    `json:"sport_type"`
	StartDate   string    `json:"start_date"`
	ElapsedTime int64     `json:"elapsed_time"`
	StartLatLng []float64 `json:"start_latlng"`
}

var virtualTypes = map[string]bool{
	"VirtualRide": true,
	"VirtualRun":  true,
	"VirtualRow":  true,
}

// Indoor reports whether the activity was recorded on a trainer or in a
// virtual environment.
func (a Activity) Indoor() bool {
	return a.Trainer || virtualTypes[a.Type] || virtualTypes[a.SportType]
}

// StartLocation returns the start coordinates. ok is false when they are
// absent or zero-valued.
func (a Activity) StartLocation() (lat, lon float64, ok bool) {
	if len(a.StartLatLng) < 2 {
		return 0, 0, false
	}
	lat, lon = a.StartLatLng[0], a.StartLatLng[1]
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}

// DescriptionText returns the description or "" when it is null.
func (a Activity) DescriptionText() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// ActivityUpdate is a partial update. Nil fields are left unchanged upstream.
type ActivityUpdate struct {
	Name        *string
	Description *string
}

// Empty reports whether the update would change nothing.
func (u ActivityUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil
}

func (u ActivityUpdate) form() url.Values {
	v := url.Values{}
	if u.Name != nil {
		v.Set("name", *u.Name)
	}
	if u.Description != nil {
		v.Set("description", *u.Description)
	}
	return v
}
