package models

import "time"

const (
	// ForecastStride is the number of 3-hourly entries per day
	ForecastStride = 8
	// ForecastDays is how many daily entries the display shows
	ForecastDays = 5
)

// CurrentConditions represents the current weather for a location
type CurrentConditions struct {
	Location    string
	Temperature float64 // degrees in the requested unit
	FeelsLike   float64
	Humidity    float64 // percent
	WindSpeed   float64 // in the requested unit
	Pressure    float64 // hPa
	Category    string  // e.g., "Clouds", "Rain"
	Icon        string  // provider icon identifier, e.g. "04d"
}

// ForecastEntry represents a single 3-hourly forecast point
type ForecastEntry struct {
	Time        time.Time
	Category    string
	Icon        string
	Temperature float64
}

// Forecast contains the raw 3-hourly forecast list for a city
type Forecast struct {
	City    string
	Entries []ForecastEntry // Ordered by time, 3 hours apart
}

// Daily returns one entry per day by taking every ForecastStride-th entry,
// keeping at most ForecastDays of them. Entries are roughly 24 hours apart
// but not aligned to calendar days.
func (f Forecast) Daily() []ForecastEntry {
	daily := make([]ForecastEntry, 0, ForecastDays)
	for i := 0; i < len(f.Entries) && len(daily) < ForecastDays; i += ForecastStride {
		daily = append(daily, f.Entries[i])
	}
	return daily
}

// Report is the joined result of one current + forecast load
type Report struct {
	City      string
	Unit      DisplayUnit
	Current   CurrentConditions
	Forecast  Forecast
	FetchedAt time.Time
}
