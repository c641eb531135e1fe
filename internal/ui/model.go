package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/ngmaloney/weather-terminal/internal/models"
	"github.com/ngmaloney/weather-terminal/internal/weather"
)

// AppState represents the current state of the application
type AppState int

const (
	StateAcquiringKey AppState = iota // Fetching the API key at startup
	StateLoading                      // First weather load, nothing to show yet
	StateDisplay                      // Weather on screen (reloads keep it visible)
	StateFatal                        // Key acquisition failed, no fetches possible
)

// Options wires the model to its data sources
type Options struct {
	KeyProvider    weather.KeyProvider
	Client         weather.Client
	DefaultCity    string
	Unit           models.DisplayUnit
	Retry          weather.RetryPolicy
	RequestTimeout time.Duration
	Logger         *log.Logger
	Now            func() time.Time
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error // fatal error

	keys        keyMap
	help        help.Model
	searchInput textinput.Model
	spinner     spinner.Model

	keyProvider weather.KeyProvider
	client      weather.Client
	retry       weather.RetryPolicy
	timeout     time.Duration
	logger      *log.Logger
	now         func() time.Time

	credential models.Credential

	// Committed state only changes when a load succeeds
	unit      models.DisplayUnit
	city      string
	display   *display
	updatedAt time.Time

	// In-flight load
	pendingUnit   models.DisplayUnit
	pendingCity   string
	pendingOrigin loadOrigin
	loading       bool
	fetchSeq      int
	cancelFetch   context.CancelFunc

	notice string
	clock  time.Time
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search for a city (e.g. Nairobi, London, New York)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 46

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if opts.Unit == "" {
		opts.Unit = models.Metric
	}
	if opts.DefaultCity == "" {
		opts.DefaultCity = "Kigali"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Model{
		state:       StateAcquiringKey,
		keys:        defaultKeyMap(),
		help:        help.New(),
		searchInput: ti,
		spinner:     s,
		keyProvider: opts.KeyProvider,
		client:      opts.Client,
		retry:       opts.Retry,
		timeout:     opts.RequestTimeout,
		logger:      opts.Logger,
		now:         opts.Now,
		unit:        opts.Unit,
		pendingUnit: opts.Unit,
		city:        opts.DefaultCity,
		clock:       opts.Now(),
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		acquireKey(m.keyProvider, m.retry, m.logger),
		tickClock(),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case clockMsg:
		m.clock = time.Time(msg)
		return m, tickClock()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case keyAcquiredMsg:
		if msg.err != nil {
			m.logger.Error("key acquisition failed", "err", msg.err)
			m.err = msg.err
			m.state = StateFatal
			return m, nil
		}
		m.credential = msg.credential
		m.err = nil
		m.state = StateLoading
		cmd := m.startLoad(m.city, m.pendingUnit, originStartup)
		return m, cmd

	case weatherLoadedMsg:
		return m.handleWeatherLoaded(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancelFetch != nil {
			m.cancelFetch()
		}
		return m, tea.Quit
	}

	switch m.state {
	case StateFatal:
		// Enter retries key acquisition
		if key.Matches(msg, m.keys.Search) {
			m.state = StateAcquiringKey
			m.err = nil
			return m, acquireKey(m.keyProvider, m.retry, m.logger)
		}
		return m, nil

	case StateLoading, StateDisplay:
		switch {
		case key.Matches(msg, m.keys.Metric):
			return m.toggleUnit(models.Metric)
		case key.Matches(msg, m.keys.Imperial):
			return m.toggleUnit(models.Imperial)
		case key.Matches(msg, m.keys.Search):
			return m.submitSearch()
		}
	}

	// Clear the notice when typing
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeyBackspace {
		m.notice = ""
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// toggleUnit reloads the last displayed city in unit. Asking for the unit
// already shown or already requested sends nothing. A pending search keeps
// its city and is reissued in the new unit.
func (m Model) toggleUnit(unit models.DisplayUnit) (tea.Model, tea.Cmd) {
	if unit == m.pendingUnit {
		return m, nil
	}

	if m.loading && m.pendingOrigin != originToggle {
		cmd := m.startLoad(m.pendingCity, unit, m.pendingOrigin)
		return m, cmd
	}

	// Switching back to the committed unit abandons a pending toggle
	if unit == m.unit && m.display != nil {
		m.abandonLoad()
		return m, nil
	}

	cmd := m.startLoad(m.city, unit, originToggle)
	return m, cmd
}

// submitSearch loads the typed city in the current unit
func (m Model) submitSearch() (tea.Model, tea.Cmd) {
	city := strings.TrimSpace(m.searchInput.Value())
	if city == "" {
		m.notice = "Please enter a city name"
		return m, nil
	}

	cmd := m.startLoad(city, m.pendingUnit, originSearch)
	return m, cmd
}

// startLoad supersedes any in-flight load and returns the command for a new one
func (m *Model) startLoad(city string, unit models.DisplayUnit, origin loadOrigin) tea.Cmd {
	if m.cancelFetch != nil {
		m.cancelFetch()
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if m.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	m.fetchSeq++
	m.cancelFetch = cancel
	m.loading = true
	m.pendingUnit = unit
	m.pendingCity = city
	m.pendingOrigin = origin
	m.notice = ""

	m.logger.Debug("loading weather", "seq", m.fetchSeq, "city", city, "unit", unit)

	return m.loadWeather(ctx, cancel, loadRequest{
		seq:        m.fetchSeq,
		city:       city,
		unit:       unit,
		origin:     origin,
		credential: m.credential,
	})
}

// abandonLoad cancels the in-flight load so its result is ignored
func (m *Model) abandonLoad() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	m.fetchSeq++
	m.loading = false
	m.pendingUnit = m.unit
}

// handleWeatherLoaded commits a successful load or reports a failed one.
// A failed load leaves the display, unit and city untouched.
func (m Model) handleWeatherLoaded(msg weatherLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.fetchSeq {
		m.logger.Debug("ignoring superseded weather load", "seq", msg.seq, "current", m.fetchSeq)
		return m, nil
	}

	m.loading = false
	m.cancelFetch = nil
	if msg.credential.Key != "" {
		m.credential = msg.credential
	}

	if msg.err != nil {
		m.pendingUnit = m.unit
		m.notice = describeError(msg.err)
		if errors.Is(msg.err, weather.ErrUnauthorized) {
			// Force a fresh key on the next load
			m.credential = models.Credential{}
		}
		m.state = StateDisplay
		return m, nil
	}

	m.unit = msg.unit
	m.pendingUnit = msg.unit
	m.city = msg.report.City
	m.display = buildDisplay(msg.report)
	m.updatedAt = msg.report.FetchedAt
	m.state = StateDisplay
	m.notice = ""

	if msg.origin == originSearch {
		m.searchInput.SetValue("")
	}

	return m, nil
}

// describeError maps a load failure to the notice shown to the user
func describeError(err error) string {
	switch {
	case errors.Is(err, weather.ErrLookupFailed):
		return "City not found"
	case errors.Is(err, weather.ErrUnauthorized):
		return "The weather service rejected the API key"
	case errors.Is(err, weather.ErrKeyUnavailable):
		return "Could not get an API key, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "The weather service took too long to answer"
	case errors.Is(err, weather.ErrNetwork):
		return "Network error, check your connection"
	default:
		return "Could not load weather"
	}
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateAcquiringKey:
		return m.viewWaiting("Fetching API key...")
	case StateLoading:
		return m.viewWaiting(fmt.Sprintf("Loading weather for %s...", m.city))
	case StateFatal:
		return m.viewFatal()
	}

	return m.viewDisplay()
}

func (m Model) viewHeader() string {
	title := titleStyle.Render("☀ Weather Terminal")
	clock := clockStyle.Render(m.clock.Format("Monday, January 2 · 15:04"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "   ", clock)
}

// viewWaiting renders a spinner while nothing can be shown yet
func (m Model) viewWaiting(status string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render(status)),
	)
}

// viewFatal renders the key acquisition failure
func (m Model) viewFatal() string {
	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		"",
		errorStyle.Render("✗ Could not get a weather API key"),
		"",
		errorMsg,
		"",
		helpStyle.Render("Press Enter to retry • Esc to quit"),
	)
}

// viewDisplay renders the search box, current conditions and forecast
func (m Model) viewDisplay() string {
	var sections []string
	sections = append(sections, m.viewHeader(), "")
	sections = append(sections, searchBoxStyle.Render(m.searchInput.View()))

	switch {
	case m.loading:
		sections = append(sections, fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render("Loading...")))
	case m.notice != "":
		sections = append(sections, errorStyle.Render("✗ "+m.notice))
	default:
		sections = append(sections, "")
	}
	sections = append(sections, "")

	if m.display == nil {
		sections = append(sections, mutedStyle.Render("No weather to show yet. Search for a city."))
	} else {
		sections = append(sections, m.renderCurrent(), m.renderForecast())
		sections = append(sections, mutedStyle.Render(fmt.Sprintf("Updated %s · %s",
			humanize.Time(m.updatedAt), m.unit)))
	}

	sections = append(sections, helpStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCurrent() string {
	d := m.display

	headline := lipgloss.JoinHorizontal(lipgloss.Center,
		bigTempStyle.Render(d.Icon+"  "+d.Temperature+m.unit.TemperatureSymbol()),
		"   ",
		cityStyle.Render(d.City),
		"  ",
		mutedStyle.Render(d.Category),
	)

	details := []string{
		labelStyle.Render("Feels like: ") + valueStyle.Render(d.FeelsLike),
		labelStyle.Render("Humidity: ") + valueStyle.Render(d.Humidity),
		labelStyle.Render("Wind: ") + valueStyle.Render(d.Wind),
		labelStyle.Render("Pressure: ") + valueStyle.Render(d.Pressure),
	}

	return currentBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headline,
		"",
		strings.Join(details, "   "),
	))
}

func (m Model) renderForecast() string {
	cards := make([]string, 0, len(m.display.Forecast))
	for _, c := range m.display.Forecast {
		cards = append(cards, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			labelStyle.Render(c.Day),
			c.Icon,
			bigTempStyle.Render(c.Temperature),
			mutedStyle.Render(c.Category),
		)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
