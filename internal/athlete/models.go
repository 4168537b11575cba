package athlete

import (
	"time"
)

// Language selects the phrase table used when formatting annotations.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageRussian Language = "ru"
)

// DefaultLanguage is used when no preference has been stored.
const DefaultLanguage = LanguageEnglish

// ParseLanguage maps a raw value onto a supported language, falling back to
// DefaultLanguage for anything unknown.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LanguageEnglish, LanguageRussian:
		return Language(s)
	default:
		return DefaultLanguage
	}
}

// Units selects the measurement system for temperature and wind speed.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits maps a raw value onto a supported unit system (metric by default).
func ParseUnits(s string) Units {
	if Units(s) == UnitsImperial {
		return UnitsImperial
	}
	return UnitsMetric
}

// Credentials is the OAuth credential record stored per athlete.
// The access token is usable only while the current time is before ExpiresAt.
type Credentials struct {
	UserID       int64     `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ValidAt reports whether the access token can still be used at t with the
// given safety margin.
func (c Credentials) ValidAt(t time.Time, margin time.Duration) bool {
	return c.ExpiresAt.After(t.Add(margin))
}

// Preferences controls what the annotation contains.
type Preferences struct {
	UserID         int64    `json:"user_id"`
	ShowIcon       bool     `json:"icon"`
	ShowHumidity   bool     `json:"humidity"`
	ShowWind       bool     `json:"wind"`
	ShowAirQuality bool     `json:"aqi"`
	Language       Language `json:"lan"`
	Units          Units    `json:"units"`
}

// DefaultPreferences returns the preferences applied when nothing is stored
// for userID.
func DefaultPreferences(userID int64) Preferences {
	return Preferences{
		UserID:         userID,
		ShowIcon:       false,
		ShowHumidity:   true,
		ShowWind:       true,
		ShowAirQuality: true,
		Language:       DefaultLanguage,
		Units:          UnitsMetric,
	}
}

// IsDefault reports whether p carries exactly the default settings. Stores
// use it to elide writes: an explicit default and no record look the same.
func (p Preferences) IsDefault() bool {
	return p == DefaultPreferences(p.UserID)
}
