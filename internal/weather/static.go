package weather

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

// StaticKeyProvider always returns the same credential
type StaticKeyProvider struct {
	Credential models.Credential
}

// GetKey implements KeyProvider
func (p StaticKeyProvider) GetKey(ctx context.Context) (models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return models.Credential{}, err
	}
	return p.Credential, nil
}

type cityFixture struct {
	name      string
	tempC     float64
	humidity  float64
	windMS    float64
	pressure  float64
	category  string
	icon      string
	dailyTemp []float64 // metric daily highs, cycled over the forecast
}

var demoCities = []cityFixture{
	{"Kigali", 24.6, 68, 3.1, 1014, "Clouds", "04d", []float64{25, 24, 26, 23, 24}},
	{"Nairobi", 22.3, 60, 4.4, 1019, "Clear", "01d", []float64{23, 22, 24, 25, 21}},
	{"London", 9.2, 81, 5.7, 1008, "Rain", "10d", []float64{10, 8, 9, 11, 7}},
	{"New York", 12.8, 55, 6.2, 1021, "Clear", "01d", []float64{13, 15, 12, 9, 11}},
	{"Tokyo", 16.4, 63, 2.5, 1016, "Clouds", "03d", []float64{17, 18, 16, 15, 19}},
	{"Reykjavik", -1.7, 77, 9.8, 996, "Snow", "13d", []float64{-1, -3, 0, -2, -4}},
}

// StaticClient serves fixed weather for a handful of cities without any
// network access. Unknown cities fail with ErrLookupFailed.
type StaticClient struct {
	mu    sync.Mutex
	now   func() time.Time
	calls int
}

// NewStaticClient creates a demo client
func NewStaticClient() *StaticClient {
	return &StaticClient{now: time.Now}
}

// Calls returns the number of requests served
func (c *StaticClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *StaticClient) lookup(ctx context.Context, city, apiKey string) (cityFixture, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return cityFixture{}, err
	}
	if apiKey == "" {
		return cityFixture{}, ErrUnauthorized
	}
	for _, f := range demoCities {
		if strings.EqualFold(f.name, strings.TrimSpace(city)) {
			return f, nil
		}
	}
	return cityFixture{}, fmt.Errorf("%q: %w", city, ErrLookupFailed)
}

// CurrentConditions implements Client
func (c *StaticClient) CurrentConditions(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.CurrentConditions, error) {
	f, err := c.lookup(ctx, city, apiKey)
	if err != nil {
		return nil, err
	}

	return &models.CurrentConditions{
		Location:    f.name,
		Temperature: temperature(f.tempC, unit),
		FeelsLike:   temperature(f.tempC-1.2, unit),
		Humidity:    f.humidity,
		WindSpeed:   windSpeed(f.windMS, unit),
		Pressure:    f.pressure,
		Category:    f.category,
		Icon:        f.icon,
	}, nil
}

// Forecast implements Client
func (c *StaticClient) Forecast(ctx context.Context, city string, unit models.DisplayUnit, apiKey string) (*models.Forecast, error) {
	f, err := c.lookup(ctx, city, apiKey)
	if err != nil {
		return nil, err
	}

	start := c.now().Truncate(3 * time.Hour)
	total := models.ForecastStride * models.ForecastDays
	forecast := &models.Forecast{City: f.name, Entries: make([]models.ForecastEntry, total)}

	for i := range forecast.Entries {
		day := i / models.ForecastStride
		// Small diurnal swing around the daily value
		swing := 3 * math.Sin(float64(i%models.ForecastStride)/models.ForecastStride*2*math.Pi)
		forecast.Entries[i] = models.ForecastEntry{
			Time:        start.Add(time.Duration(i) * 3 * time.Hour),
			Category:    f.category,
			Icon:        f.icon,
			Temperature: temperature(f.dailyTemp[day%len(f.dailyTemp)]+swing, unit),
		}
	}

	return forecast, nil
}

func temperature(celsius float64, unit models.DisplayUnit) float64 {
	if unit == models.Imperial {
		return celsius*9/5 + 32
	}
	return celsius
}

func windSpeed(metersPerSecond float64, unit models.DisplayUnit) float64 {
	if unit == models.Imperial {
		return metersPerSecond * 2.23694
	}
	return metersPerSecond
}

var _ Client = (*StaticClient)(nil)
