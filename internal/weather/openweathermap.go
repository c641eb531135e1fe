package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

// OpenWeatherMapClient implements Client using the OpenWeatherMap 2.5 API
type OpenWeatherMapClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewOpenWeatherMapClient creates a client for the API rooted at baseURL
func NewOpenWeatherMapClient(baseURL string) *OpenWeatherMapClient {
	return &OpenWeatherMapClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "WeatherTerminal/1.0 (github.com/ngmaloney/weather-terminal)",
	}
}

type conditionResponse struct {
	Main string `json:"main"`
	Icon string `json:"icon"`
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []conditionResponse `json:"weather"`
}

type forecastResponse struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []conditionResponse `json:"weather"`
	} `json:"list"`
}

// CurrentConditions implements Client
func (c *OpenWeatherMapClient) CurrentConditions(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.CurrentConditions, error) {
	var cr currentResponse
	if err := c.get(ctx, "weather", city, unit, apiKey, &cr); err != nil {
		return nil, fmt.Errorf("current conditions for %q: %w", city, err)
	}

	conditions := &models.CurrentConditions{
		Location:    cr.Name,
		Temperature: cr.Main.Temp,
		FeelsLike:   cr.Main.FeelsLike,
		Humidity:    cr.Main.Humidity,
		WindSpeed:   cr.Wind.Speed,
		Pressure:    cr.Main.Pressure,
	}
	if conditions.Location == "" {
		conditions.Location = city
	}
	if len(cr.Weather) > 0 {
		conditions.Category = cr.Weather[0].Main
		conditions.Icon = cr.Weather[0].Icon
	}

	return conditions, nil
}

// Forecast implements Client
func (c *OpenWeatherMapClient) Forecast(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.Forecast, error) {
	var fr forecastResponse
	if err := c.get(ctx, "forecast", city, unit, apiKey, &fr); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", city, err)
	}

	forecast := &models.Forecast{
		City:    fr.City.Name,
		Entries: make([]models.ForecastEntry, 0, len(fr.List)),
	}
	if forecast.City == "" {
		forecast.City = city
	}

	for _, item := range fr.List {
		entry := models.ForecastEntry{
			Time:        time.Unix(item.Dt, 0),
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			entry.Category = item.Weather[0].Main
			entry.Icon = item.Weather[0].Icon
		}
		forecast.Entries = append(forecast.Entries, entry)
	}

	return forecast, nil
}

// get issues GET {base}/{endpoint}?q=&units=&appid= and decodes the reply into out
func (c *OpenWeatherMapClient) get(ctx context.Context, endpoint, city string, unit models.DisplayUnit, apiKey string, out any) error {
	params := url.Values{}
	params.Set("q", city)
	params.Set("units", unit.String())
	params.Set("appid", apiKey)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return ErrLookupFailed
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: API returned status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

var _ Client = (*OpenWeatherMapClient)(nil)
