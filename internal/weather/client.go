package weather

import (
	"context"
	"errors"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

var (
	// ErrKeyUnavailable means the key provider could not be reached or
	// kept failing after every retry
	ErrKeyUnavailable = errors.New("weather API key unavailable")

	// ErrInvalidKeyResponse means the key provider answered without a usable key
	ErrInvalidKeyResponse = errors.New("key provider response has no apiKey")

	// ErrKeyExpired means the key provider handed out an already lapsed credential
	ErrKeyExpired = errors.New("key provider returned an expired credential")

	// ErrLookupFailed means the weather provider does not know the city
	ErrLookupFailed = errors.New("city not found")

	// ErrUnauthorized means the weather provider rejected the API key
	ErrUnauthorized = errors.New("weather API rejected the key")

	// ErrNetwork wraps transport failures
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse means a body could not be decoded
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUpstream covers any other non-2xx reply
	ErrUpstream = errors.New("upstream error")
)

// KeyProvider hands out the weather provider credential
type KeyProvider interface {
	// GetKey fetches one credential
	GetKey(ctx context.Context) (models.Credential, error)
}

// Client defines the interface for fetching weather for a city
type Client interface {
	// CurrentConditions retrieves the current weather for city
	CurrentConditions(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.CurrentConditions, error)

	// Forecast retrieves the 3-hourly forecast list for city
	Forecast(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.Forecast, error)
}
