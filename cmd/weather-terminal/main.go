package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/weather-terminal/internal/config"
	"github.com/ngmaloney/weather-terminal/internal/logger"
	"github.com/ngmaloney/weather-terminal/internal/models"
	"github.com/ngmaloney/weather-terminal/internal/ui"
	"github.com/ngmaloney/weather-terminal/internal/weather"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	city := flag.String("city", cfg.DefaultCity, "City to show at startup")
	units := flag.String("units", cfg.Units, "Display units: metric or imperial")
	flag.Parse()

	unit, err := models.ParseDisplayUnit(*units)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to LOG_FILE
	log := logger.New(io.Discard, logger.Options{Level: cfg.LogLevel})
	if cfg.LogFile != "" {
		f, err := tea.LogToFileWith(cfg.LogFile, "weather-terminal", log)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	m := ui.NewModel(ui.Options{
		KeyProvider: weather.NewKeyProvider(cfg.KeyProviderURL),
		Client:      weather.NewOpenWeatherMapClient(cfg.WeatherAPIURL),
		DefaultCity: *city,
		Unit:        unit,
		Retry: weather.RetryPolicy{
			MaxRetries: cfg.KeyMaxRetries,
			Delay:      cfg.KeyRetryDelay,
		},
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
