package models

import (
	"fmt"
	"strings"
)

// DisplayUnit selects the unit system requested from the weather provider
type DisplayUnit string

const (
	Metric   DisplayUnit = "metric"
	Imperial DisplayUnit = "imperial"
)

// ParseDisplayUnit accepts "metric"/"imperial" and the C/F shorthands
func ParseDisplayUnit(s string) (DisplayUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metric", "c", "celsius":
		return Metric, nil
	case "imperial", "f", "fahrenheit":
		return Imperial, nil
	default:
		return "", fmt.Errorf("unknown display unit %q", s)
	}
}

// WindLabel returns the label shown after wind speeds
func (u DisplayUnit) WindLabel() string {
	if u == Imperial {
		return "mph"
	}
	return "km/h"
}

// TemperatureSymbol returns "C" or "F"
func (u DisplayUnit) TemperatureSymbol() string {
	if u == Imperial {
		return "F"
	}
	return "C"
}

func (u DisplayUnit) String() string {
	return string(u)
}
