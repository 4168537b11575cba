package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// Markers whose presence in a description means it already carries weather.
var Markers = []string{"°C", "°F"}

var compass = map[athlete.Language][17]string{
	athlete.LanguageRussian: {"С", "ССВ", "СВ", "ВСВ", "В", "ВЮВ", "ЮВ", "ЮЮВ",
		"Ю", "ЮЮЗ", "ЮЗ", "ЗЮЗ", "З", "ЗСЗ", "СЗ", "ССЗ", "С"},
	athlete.LanguageEnglish: {"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW", "N"},
}

type phrases struct {
	feelsLike string
	kph       string
	mph       string
	from      string
	air       string
}

var phraseTable = map[athlete.Language]phrases{
	athlete.LanguageRussian: {feelsLike: "по ощущениям", kph: "км/ч", mph: "миль/ч", from: "с", air: "Воздух"},
	athlete.LanguageEnglish: {feelsLike: "feels like", kph: "kph", mph: "mph", from: "from", air: "Air"},
}

// Index 0 is EPA category 1.
var airQualityFaces = [6]string{"😃", "🙂", "😐", "🙁", "😨", "🤢"}

func phrasesFor(lang athlete.Language) phrases {
	if p, ok := phraseTable[lang]; ok {
		return p
	}
	return phraseTable[athlete.DefaultLanguage]
}

// CompassDirection maps a wind bearing onto the 16-point compass.
func CompassDirection(degrees float64, lang athlete.Language) string {
	table, ok := compass[lang]
	if !ok {
		table = compass[athlete.DefaultLanguage]
	}
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return table[int(d/22.5+0.5)]
}

// FormatConditions renders the weather fragment, e.g.
// "Partly cloudy, 🌡 12°C (feels like 10°C), 💦 81%, 💨 14kph (from NNE)."
func FormatConditions(c Conditions, opts Options) string {
	p := phrasesFor(opts.Language)

	temp, feels, unit := c.TempC, c.FeelsLikeC, "°C"
	wind, windUnit := c.WindKph, p.kph
	if opts.Units == athlete.UnitsImperial {
		temp, feels, unit = celsiusToFahrenheit(temp), celsiusToFahrenheit(feels), "°F"
		wind, windUnit = c.WindKph/1.609344, p.mph
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, 🌡\u00a0%s%s (%s %s%s)", capitalize(c.Text), whole(temp), unit, p.feelsLike, whole(feels), unit)
	if opts.Humidity {
		fmt.Fprintf(&b, ", 💦\u00a0%s%%", whole(c.Humidity))
	}
	if opts.Wind {
		speed := whole(wind)
		fmt.Fprintf(&b, ", 💨\u00a0%s%s", speed, windUnit)
		if speed != "0" {
			fmt.Fprintf(&b, " (%s %s).", p.from, CompassDirection(c.WindDegree, opts.Language))
		} else {
			b.WriteString(".")
		}
	}
	return b.String()
}

// FormatAirQuality renders the air-quality fragment. It starts with a line
// break so it can follow a weather fragment directly. ok is false when the
// index is outside the EPA scale.
func FormatAirQuality(aq AirQuality, lang athlete.Language) (string, bool) {
	if aq.Index < 1 || aq.Index > len(airQualityFaces) {
		return "", false
	}
	p := phrasesFor(lang)
	return fmt.Sprintf("\n%s %s %.1f(PM2.5), %s(SO₂), %s(NO₂), %s(O₃), %s(CO).",
		p.air, airQualityFaces[aq.Index-1], aq.PM25, whole(aq.SO2), whole(aq.NO2), whole(aq.O3), whole(aq.CO)), true
}

// whole rounds to the nearest integer and never yields "-0".
func whole(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
			continue
		}
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
