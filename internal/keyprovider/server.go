package keyprovider

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ngmaloney/weather-terminal/internal/config"
	"github.com/ngmaloney/weather-terminal/internal/models"
	"github.com/ngmaloney/weather-terminal/internal/ratelimit"
)

// ErrMisconfigured is returned when no weather provider secret is configured
var ErrMisconfigured = errors.New("API key not configured")

// Server hands out the weather provider credential over HTTP
type Server struct {
	cfg     *config.Server
	logger  *log.Logger
	store   ratelimit.Store
	started time.Time
	now     func() time.Time
	handler http.Handler
}

// NewServer builds the key provider. store budgets calls to /api-key.
func NewServer(cfg *config.Server, store ratelimit.Store, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		now:    time.Now,
	}
	s.started = s.now()
	s.handler = s.routes()

	if cfg.APIKey == "" {
		logger.Warn("no weather API key configured, /api-key will return 500")
	} else {
		logger.Info("weather API key configured", "key", MaskSecret(cfg.APIKey))
	}

	return s
}

// Handler returns the full middleware chain and routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GetKey returns the configured secret, with an expiry when a key TTL is set
func (s *Server) GetKey() (models.Credential, error) {
	if s.cfg.APIKey == "" {
		return models.Credential{}, ErrMisconfigured
	}

	cred := models.Credential{Key: s.cfg.APIKey}
	if s.cfg.KeyTTL > 0 {
		cred.ExpiresAt = s.now().Add(s.cfg.KeyTTL)
	}
	return cred, nil
}

func (s *Server) routes() http.Handler {
	limit := ratelimit.Middleware(s.store, ratelimit.Options{
		Message:    s.cfg.RateLimit.Message,
		TrustProxy: s.cfg.TrustProxy,
		Logger:     s.logger,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /api-key", limit(http.HandlerFunc(s.handleAPIKey)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = corsMiddleware(s.cfg)(h)
	h = securityHeaders(s.cfg)(h)
	h = recoverer(s.logger, !s.cfg.IsProduction())(h)
	h = accessLog(s.logger)(h)
	h = requestID(h)
	return h
}

// MaskSecret keeps the last four characters of secret for log output
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
