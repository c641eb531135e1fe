package weather

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

// LoadReport fetches current conditions and the forecast for city concurrently.
// If either request fails the other is cancelled and no report is returned.
func LoadReport(ctx context.Context, client Client, city string, unit models.DisplayUnit, apiKey string) (*models.Report, error) {
	var (
		current  *models.CurrentConditions
		forecast *models.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = client.CurrentConditions(gctx, city, unit, apiKey)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = client.Forecast(gctx, city, unit, apiKey)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Report{
		City:      current.Location,
		Unit:      unit,
		Current:   *current,
		Forecast:  *forecast,
		FetchedAt: time.Now(),
	}, nil
}
