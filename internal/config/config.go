package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment selects development or production behaviour
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Getenv looks up a single environment variable
type Getenv func(key string) string

// Server holds the key provider configuration
type Server struct {
	Port           string
	HTTPSPort      string
	APIKey         string
	Env            Environment
	AllowedOrigins []string
	AllowedMethods []string
	RateLimit      RateLimit
	TrustProxy     bool
	KeyTTL         time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	LogLevel       string
}

// RateLimit configures the per-caller budget on the key endpoint
type RateLimit struct {
	Window  time.Duration
	Max     int
	Message string
	Store   string // "memory" or "sqlite"
	DBPath  string
}

// IsProduction reports whether production hardening applies
func (s *Server) IsProduction() bool {
	return s.Env == Production
}

// TLSEnabled reports whether HTTPS should be served
func (s *Server) TLSEnabled() bool {
	return s.IsProduction() && s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// Client holds the weather terminal configuration
type Client struct {
	KeyProviderURL string
	WeatherAPIURL  string
	DefaultCity    string
	Units          string
	KeyMaxRetries  int
	KeyRetryDelay  time.Duration
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       string
}

var developmentOrigins = []string{
	"http://localhost",
	"http://localhost:*",
	"http://127.0.0.1",
	"http://127.0.0.1:*",
}

// loadDotEnv reads .env when present. A missing file is fine in deployment.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// LoadServer reads the key provider configuration from .env and the environment
func LoadServer() (*Server, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return ServerFromEnv(os.Getenv)
}

// LoadClient reads the weather terminal configuration from .env and the environment
func LoadClient() (*Client, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return ClientFromEnv(os.Getenv)
}

// ServerFromEnv builds the server configuration from getenv
func ServerFromEnv(getenv Getenv) (*Server, error) {
	env := Environment(strings.ToLower(valueOr(getenv, "NODE_ENV", string(Development))))
	if env != Development && env != Production {
		return nil, fmt.Errorf("NODE_ENV must be %q or %q, got %q", Development, Production, env)
	}

	cfg := &Server{
		Port:           valueOr(getenv, "PORT", "5000"),
		HTTPSPort:      valueOr(getenv, "HTTPS_PORT", "443"),
		APIKey:         firstOf(getenv, "OPENWEATHER_API_KEY", "API_KEY"),
		Env:            env,
		AllowedMethods: splitList(valueOr(getenv, "CORS_ALLOWED_METHODS", "GET")),
		TLSCertFile:    getenv("TLS_CERT_FILE"),
		TLSKeyFile:     getenv("TLS_KEY_FILE"),
		LogLevel:       valueOr(getenv, "LOG_LEVEL", "info"),
		RateLimit: RateLimit{
			Message: valueOr(getenv, "RATE_LIMIT_MESSAGE", "Too many requests, please try again later"),
			Store:   strings.ToLower(valueOr(getenv, "RATE_LIMIT_STORE", "memory")),
			DBPath:  getenv("RATE_LIMIT_DB"),
		},
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	} else if env == Development {
		cfg.AllowedOrigins = append([]string(nil), developmentOrigins...)
	}

	var err error
	if cfg.RateLimit.Window, err = durationOr(getenv, "RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Max, err = intOr(getenv, "RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.KeyTTL, err = durationOr(getenv, "KEY_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = boolOr(getenv, "TRUST_PROXY", false); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Max <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimit.Max)
	}
	if cfg.KeyTTL < 0 {
		return nil, fmt.Errorf("KEY_TTL must not be negative, got %s", cfg.KeyTTL)
	}
	if cfg.RateLimit.Store != "memory" && cfg.RateLimit.Store != "sqlite" {
		return nil, fmt.Errorf("RATE_LIMIT_STORE must be memory or sqlite, got %q", cfg.RateLimit.Store)
	}

	return cfg, nil
}

// ClientFromEnv builds the weather terminal configuration from getenv
func ClientFromEnv(getenv Getenv) (*Client, error) {
	cfg := &Client{
		KeyProviderURL: valueOr(getenv, "KEY_PROVIDER_URL", "http://localhost:5000/api-key"),
		WeatherAPIURL:  strings.TrimRight(valueOr(getenv, "WEATHER_API_URL", "https://api.openweathermap.org/data/2.5"), "/"),
		DefaultCity:    valueOr(getenv, "DEFAULT_CITY", "Kigali"),
		Units:          valueOr(getenv, "UNITS", "metric"),
		LogFile:        getenv("LOG_FILE"),
		LogLevel:       valueOr(getenv, "LOG_LEVEL", "info"),
	}

	var err error
	if cfg.KeyMaxRetries, err = intOr(getenv, "KEY_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.KeyRetryDelay, err = durationOr(getenv, "KEY_RETRY_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationOr(getenv, "REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.KeyMaxRetries < 0 {
		return nil, fmt.Errorf("KEY_MAX_RETRIES must not be negative, got %d", cfg.KeyMaxRetries)
	}

	return cfg, nil
}

func valueOr(getenv Getenv, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstOf(getenv Getenv, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func durationOr(getenv Getenv, key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func intOr(getenv Getenv, key string, fallback int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func boolOr(getenv Getenv, key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
