package logger

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a logger
type Options struct {
	Prefix string
	Level  string // debug, info, warn, error
	JSON   bool
}

// New creates a leveled key/value logger writing to w.
// An unknown level falls back to info.
func New(w io.Writer, opts Options) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = log.InfoLevel
	}

	l := log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	if opts.JSON {
		l.SetFormatter(log.JSONFormatter)
	}
	return l
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}
