package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures the rate limit middleware
type Options struct {
	Message    string // body text for rejected requests
	TrustProxy bool   // key callers by the first X-Forwarded-For hop
	Logger     *log.Logger
	Now        func() time.Time
}

// Middleware rejects callers that exceed their budget in store with 429.
// Store failures fail closed with 503.
func Middleware(store Store, opts Options) func(http.Handler) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Message == "" {
		opts.Message = "Too many requests, please try again later"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r, opts.TrustProxy)

			res, err := store.Take(r.Context(), key, opts.Now())
			if err != nil {
				opts.Logger.Error("rate limit store failed", "caller", key, "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
				return
			}

			reset := seconds(res.RetryAfter)
			w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))

			if !res.Allowed {
				opts.Logger.Warn("rate limit exceeded", "caller", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(reset))
				writeJSONError(w, http.StatusTooManyRequests, opts.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller address used as the rate limit key
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
