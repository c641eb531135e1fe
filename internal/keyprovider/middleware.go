package keyprovider

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/unrolled/secure"

	"github.com/ngmaloney/weather-terminal/internal/config"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// RequestIDFrom returns the request id stored by the request id middleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func accessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"duration", m.Duration,
				"bytes", m.Written,
				"remote", r.RemoteAddr,
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}

// recoverer turns handler panics into a 500. The panic value is only echoed
// back to the caller when verbose is set.
func recoverer(logger *log.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("handler panic",
					"err", rec,
					"path", r.URL.Path,
					"request_id", RequestIDFrom(r.Context()),
					"stack", string(debug.Stack()),
				)

				body := map[string]string{"error": "Internal server error"}
				if verbose {
					body["message"] = fmt.Sprint(rec)
				}
				writeJSON(w, http.StatusInternalServerError, body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

const contentSecurityPolicy = "default-src 'self'; object-src 'none'; frame-ancestors 'none'"

func securityHeaders(cfg *config.Server) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ContentSecurityPolicy: contentSecurityPolicy,
		ReferrerPolicy:        "no-referrer",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		ForceSTSHeader:        cfg.IsProduction(),
		IsDevelopment:         !cfg.IsProduction(),
	})
	return sec.Handler
}

func corsMiddleware(cfg *config.Server) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:       cfg.AllowedOrigins,
		AllowedMethods:       cfg.AllowedMethods,
		AllowedHeaders:       []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:       []string{RequestIDHeader, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		OptionsSuccessStatus: http.StatusNoContent,
	}
	// An empty list means allow everything to rs/cors
	if len(cfg.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts).Handler
}
