package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/activity-weather/internal/athlete"
)

func TestCompassDirection(t *testing.T) {
	cases := []struct {
		degrees float64
		en, ru  string
	}{
		{0, "N", "С"},
		{358, "N", "С"},
		{12, "NNE", "ССВ"},
		{11.25, "NNE", "ССВ"},
		{90, "E", "В"},
		{200, "SSW", "ЮЮЗ"},
		{360, "N", "С"},
		{-10, "N", "С"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.en, CompassDirection(tc.degrees, athlete.LanguageEnglish), "en %v", tc.degrees)
		assert.Equal(t, tc.ru, CompassDirection(tc.degrees, athlete.LanguageRussian), "ru %v", tc.degrees)
	}
}

func TestFormatConditions(t *testing.T) {
	sample := Conditions{
		Text:       "partly cloudy",
		TempC:      12.4,
		FeelsLikeC: 10.6,
		Humidity:   81,
		WindKph:    14.2,
		WindDegree: 20,
	}

	t.Run("all segments", func(t *testing.T) {
		got := FormatConditions(sample, Options{Language: athlete.LanguageEnglish, Units: athlete.UnitsMetric, Humidity: true, Wind: true})
		require.Equal(t, "Partly cloudy, 🌡\u00a012°C (feels like 11°C), 💦\u00a081%, 💨\u00a014kph (from NNE).", got)
	})

	t.Run("russian", func(t *testing.T) {
		c := sample
		c.Text = "Переменная облачность"
		got := FormatConditions(c, Options{Language: athlete.LanguageRussian, Units: athlete.UnitsMetric, Humidity: true, Wind: true})
		require.Equal(t, "Переменная облачность, 🌡\u00a012°C (по ощущениям 11°C), 💦\u00a081%, 💨\u00a014км/ч (с ССВ).", got)
	})

	t.Run("no optional segments", func(t *testing.T) {
		got := FormatConditions(sample, Options{Language: athlete.LanguageEnglish})
		require.Equal(t, "Partly cloudy, 🌡\u00a012°C (feels like 11°C)", got)
	})

	t.Run("calm wind has no direction", func(t *testing.T) {
		c := Conditions{Text: "Clear", TempC: -3.2, FeelsLikeC: -6.9, WindKph: 0.4, WindDegree: 270}
		got := FormatConditions(c, Options{Language: athlete.LanguageEnglish, Wind: true})
		require.Equal(t, "Clear, 🌡\u00a0-3°C (feels like -7°C), 💨\u00a00kph.", got)
	})

	t.Run("negative zero", func(t *testing.T) {
		c := Conditions{Text: "Mist", TempC: -0.3, FeelsLikeC: -0.4}
		got := FormatConditions(c, Options{Language: athlete.LanguageEnglish})
		require.Equal(t, "Mist, 🌡\u00a00°C (feels like 0°C)", got)
	})

	t.Run("imperial", func(t *testing.T) {
		c := Conditions{Text: "SUNNY", TempC: 20, FeelsLikeC: 18, WindKph: 16.09344, WindDegree: 180}
		got := FormatConditions(c, Options{Language: athlete.LanguageEnglish, Units: athlete.UnitsImperial, Wind: true})
		require.Equal(t, "Sunny, 🌡\u00a068°F (feels like 64°F), 💨\u00a010mph (from S).", got)
	})
}

func TestFormatAirQuality(t *testing.T) {
	aq := AirQuality{Index: 2, PM25: 7.31, SO2: 1.4, NO2: 12.6, O3: 55.7, CO: 230.3}

	got, ok := FormatAirQuality(aq, athlete.LanguageEnglish)
	require.True(t, ok)
	require.Equal(t, "\nAir 🙂 7.3(PM2.5), 1(SO₂), 13(NO₂), 56(O₃), 230(CO).", got)

	got, ok = FormatAirQuality(aq, athlete.LanguageRussian)
	require.True(t, ok)
	require.Equal(t, "\nВоздух 🙂 7.3(PM2.5), 1(SO₂), 13(NO₂), 56(O₃), 230(CO).", got)

	for _, index := range []int{0, 7} {
		aq.Index = index
		_, ok = FormatAirQuality(aq, athlete.LanguageEnglish)
		assert.False(t, ok, "index %d", index)
	}
}
