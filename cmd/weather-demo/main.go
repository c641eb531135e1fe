package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/weather-terminal/internal/logger"
	"github.com/ngmaloney/weather-terminal/internal/models"
	"github.com/ngmaloney/weather-terminal/internal/ui"
	"github.com/ngmaloney/weather-terminal/internal/weather"
)

// This demo shows the UI with built-in weather for a few cities and no network access
func main() {
	city := flag.String("city", "Kigali", "Kigali, Nairobi, London, New York, Tokyo or Reykjavik")
	flag.Parse()

	m := ui.NewModel(ui.Options{
		KeyProvider: weather.StaticKeyProvider{Credential: models.Credential{Key: "demo"}},
		Client:      weather.NewStaticClient(),
		DefaultCity: *city,
		Unit:        models.Metric,
		Logger:      logger.New(io.Discard, logger.Options{}),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running demo: %v\n", err)
		os.Exit(1)
	}
}
