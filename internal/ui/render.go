package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

// display holds the formatted text of every weather element on screen.
// It is rebuilt as a whole from one report and never patched.
type display struct {
	City        string
	Category    string
	Icon        string
	Temperature string
	FeelsLike   string
	Humidity    string
	Wind        string
	Pressure    string
	Forecast    []forecastCard
}

type forecastCard struct {
	Day         string
	Icon        string
	Category    string
	Temperature string
}

// buildDisplay formats a report for the screen
func buildDisplay(r *models.Report) *display {
	c := r.Current
	d := &display{
		City:        r.City,
		Category:    c.Category,
		Icon:        weatherIcon(c.Icon, c.Category),
		Temperature: formatTemperature(c.Temperature),
		FeelsLike:   formatTemperature(c.FeelsLike),
		Humidity:    fmt.Sprintf("%d%%", round(c.Humidity)),
		Wind:        fmt.Sprintf("%d %s", round(c.WindSpeed), r.Unit.WindLabel()),
		Pressure:    fmt.Sprintf("%d hPa", round(c.Pressure)),
	}

	for _, entry := range r.Forecast.Daily() {
		d.Forecast = append(d.Forecast, forecastCard{
			Day:         entry.Time.Format("Mon"),
			Icon:        weatherIcon(entry.Icon, entry.Category),
			Category:    entry.Category,
			Temperature: formatTemperature(entry.Temperature),
		})
	}

	return d
}

func round(v float64) int {
	return int(math.Round(v))
}

func formatTemperature(t float64) string {
	return fmt.Sprintf("%d°", round(t))
}

var iconsByCode = map[string]string{
	"01d": "☀️",
	"01n": "🌙",
	"02":  "🌤️",
	"03":  "☁️",
	"04":  "☁️",
	"09":  "🌧️",
	"10":  "🌦️",
	"11":  "⛈️",
	"13":  "❄️",
	"50":  "🌫️",
}

var iconsByCategory = map[string]string{
	"clear":        "☀️",
	"clouds":       "☁️",
	"drizzle":      "🌧️",
	"rain":         "🌧️",
	"thunderstorm": "⛈️",
	"snow":         "❄️",
	"mist":         "🌫️",
	"fog":          "🌫️",
	"haze":         "🌫️",
}

// weatherIcon maps a provider icon id like "04d" to an emoji, falling back
// to the weather category
func weatherIcon(code, category string) string {
	if icon, ok := iconsByCode[code]; ok {
		return icon
	}
	if len(code) >= 2 {
		if icon, ok := iconsByCode[code[:2]]; ok {
			return icon
		}
	}
	if icon, ok := iconsByCategory[strings.ToLower(category)]; ok {
		return icon
	}
	return "🌡️"
}
