package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ngmaloney/weather-terminal/internal/config"
	"github.com/ngmaloney/weather-terminal/internal/database"
	"github.com/ngmaloney/weather-terminal/internal/keyprovider"
	"github.com/ngmaloney/weather-terminal/internal/logger"
	"github.com/ngmaloney/weather-terminal/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run owns every resource the server needs and releases them before
// returning, whether the server stops on a signal or a listener error.
func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return err
	}

	lg := logger.New(os.Stderr, logger.Options{
		Prefix: "keyprovider",
		Level:  cfg.LogLevel,
		JSON:   cfg.IsProduction(),
	})

	store, err := openStore(cfg.RateLimit)
	if err != nil {
		lg.Error("opening rate limit store", "err", err)
		return err
	}
	defer store.Close()

	janitor, err := ratelimit.StartJanitor(store, cfg.RateLimit.Window, lg)
	if err != nil {
		lg.Error("starting rate limit janitor", "err", err)
		return err
	}
	defer janitor.Stop()

	srv := keyprovider.NewServer(cfg, store, lg)

	addr := ":" + cfg.Port
	certFile, keyFile := "", ""
	if cfg.TLSEnabled() {
		addr = ":" + cfg.HTTPSPort
		certFile, keyFile = cfg.TLSCertFile, cfg.TLSKeyFile
	}
	s := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Signals for an orderly shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	lg.Info("key provider listening",
		"addr", addr,
		"env", cfg.Env,
		"tls", cfg.TLSEnabled(),
		"rate_limit", cfg.RateLimit.Max,
		"window", cfg.RateLimit.Window,
		"store", cfg.RateLimit.Store,
	)

	if err := serve(s, certFile, keyFile, stop, lg); err != nil {
		lg.Error("server stopped", "err", err)
		return err
	}
	lg.Info("shutdown complete")
	return nil
}

// serve runs s until a signal arrives on stop or the listener fails. TLS is
// used when certFile is set. A signal drains connections and returns nil.
func serve(s *http.Server, certFile, keyFile string, stop <-chan os.Signal, lg *log.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" {
			err = s.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = s.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	lg.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("draining connections: %w", err)
	}
	return nil
}

func openStore(cfg config.RateLimit) (ratelimit.Store, error) {
	if cfg.Store == "sqlite" {
		path := cfg.DBPath
		if path == "" {
			path = database.DBPath()
		}
		return ratelimit.NewSQLiteStore(path, cfg.Window, cfg.Max)
	}
	return ratelimit.NewMemoryStore(cfg.Window, cfg.Max), nil
}
