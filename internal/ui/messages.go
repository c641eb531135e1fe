package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/ngmaloney/weather-terminal/internal/models"
	"github.com/ngmaloney/weather-terminal/internal/weather"
)

// Message types for async operations

// loadOrigin records which user action started a weather load
type loadOrigin int

const (
	originStartup loadOrigin = iota
	originSearch
	originToggle
)

// keyAcquiredMsg is sent when startup key acquisition finishes
type keyAcquiredMsg struct {
	credential models.Credential
	err        error
}

// weatherLoadedMsg is sent when a current + forecast load finishes
type weatherLoadedMsg struct {
	seq        int
	city       string
	unit       models.DisplayUnit
	origin     loadOrigin
	credential models.Credential // set when the load had to re-acquire the key
	report     *models.Report
	err        error
}

// clockMsg refreshes the header clock
type clockMsg time.Time

// acquireKey fetches the credential with retries
func acquireKey(provider weather.KeyProvider, policy weather.RetryPolicy, logger *log.Logger) tea.Cmd {
	return func() tea.Msg {
		cred, err := weather.AcquireKey(context.Background(), provider, policy, logger)
		return keyAcquiredMsg{credential: cred, err: err}
	}
}

// loadRequest carries everything one weather load needs off the UI goroutine
type loadRequest struct {
	seq        int
	city       string
	unit       models.DisplayUnit
	origin     loadOrigin
	credential models.Credential
}

// loadWeather fetches the report for req. A lapsed credential is re-acquired
// first. cancel is released when the load finishes.
func (m Model) loadWeather(ctx context.Context, cancel context.CancelFunc, req loadRequest) tea.Cmd {
	keys, client, retry, logger, now := m.keyProvider, m.client, m.retry, m.logger, m.now

	return func() tea.Msg {
		defer cancel()

		msg := weatherLoadedMsg{seq: req.seq, city: req.city, unit: req.unit, origin: req.origin}

		cred := req.credential
		if !cred.Valid(now()) {
			logger.Info("credential missing or expired, re-acquiring")
			var err error
			if cred, err = weather.AcquireKey(ctx, keys, retry, logger); err != nil {
				msg.err = err
				return msg
			}
			msg.credential = cred
		}

		msg.report, msg.err = weather.LoadReport(ctx, client, req.city, req.unit, cred.Key)
		if msg.err != nil {
			logger.Warn("weather load failed", "city", req.city, "unit", req.unit, "err", msg.err)
		}
		return msg
	}
}

// tickClock fires once per minute on the wall clock
func tickClock() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
