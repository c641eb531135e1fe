package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	colorPrimary = lipgloss.Color("#00BFFF") // Deep sky blue
	colorWarm    = lipgloss.Color("#FFB347") // Temperatures
	colorDanger  = lipgloss.Color("#FF6B6B") // Errors
	colorMuted   = lipgloss.Color("#6C757D") // Gray
	colorBorder  = lipgloss.Color("#4A90E2") // Border blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	clockStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	searchBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(50)

	// Current conditions box
	currentBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginBottom(1)

	bigTempStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarm)

	cityStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// Forecast cards
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginRight(1).
			Width(12).
			Align(lipgloss.Center)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0, 0, 0)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
