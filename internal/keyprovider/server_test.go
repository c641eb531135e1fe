package keyprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ngmaloney/weather-terminal/internal/config"
	"github.com/ngmaloney/weather-terminal/internal/logger"
	"github.com/ngmaloney/weather-terminal/internal/ratelimit"
)

func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()

	cfg, err := config.ServerFromEnv(func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("ServerFromEnv() error = %v", err)
	}

	store := ratelimit.NewMemoryStore(cfg.RateLimit.Window, cfg.RateLimit.Max)
	return NewServer(cfg, store, logger.Discard())
}

func do(s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAPIKey_ReturnsSecretWithExpiry(t *testing.T) {
	s := newTestServer(t, map[string]string{"OPENWEATHER_API_KEY": "abc123"})
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	rec := do(s, http.MethodGet, "/api-key", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	body := decode(t, rec)
	if body["apiKey"] != "abc123" {
		t.Errorf("apiKey = %v, want abc123", body["apiKey"])
	}
	wantExpiry := float64(now.Add(time.Hour).UnixMilli())
	if body["expiresAt"] != wantExpiry {
		t.Errorf("expiresAt = %v, want %v", body["expiresAt"], wantExpiry)
	}
}

func TestAPIKey_NoExpiryWhenTTLDisabled(t *testing.T) {
	s := newTestServer(t, map[string]string{"API_KEY": "abc123", "KEY_TTL": "0s"})

	body := decode(t, do(s, http.MethodGet, "/api-key", nil))

	if _, ok := body["expiresAt"]; ok {
		t.Errorf("expiresAt present with TTL disabled: %v", body)
	}
}

func TestAPIKey_Misconfigured(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api-key", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "API key not configured" {
		t.Errorf("error = %v", body["error"])
	}
	if _, ok := body["apiKey"]; ok {
		t.Error("misconfigured response must not carry apiKey")
	}
}

func TestGetKey_Misconfigured(t *testing.T) {
	s := newTestServer(t, nil)

	if _, err := s.GetKey(); err != ErrMisconfigured {
		t.Errorf("GetKey() error = %v, want ErrMisconfigured", err)
	}
}

func TestAPIKey_RateLimited(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"API_KEY":            "abc123",
		"RATE_LIMIT_MAX":     "3",
		"RATE_LIMIT_MESSAGE": "Too many requests",
	})

	for i := 0; i < 3; i++ {
		if rec := do(s, http.MethodGet, "/api-key", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := do(s, http.MethodGet, "/api-key", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request status = %d, want 429", rec.Code)
	}
	if body := decode(t, rec); body["error"] != "Too many requests" {
		t.Errorf("error = %v, want configured message", body["error"])
	}
	if rec.Header().Get("RateLimit-Limit") != "3" {
		t.Errorf("RateLimit-Limit = %q, want 3", rec.Header().Get("RateLimit-Limit"))
	}
}

func TestHealth_NotRateLimited(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_MAX": "1"})

	for i := 0; i < 3; i++ {
		rec := do(s, http.MethodGet, "/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d status = %d, want 200", i+1, rec.Code)
		}

		body := decode(t, rec)
		if body["status"] != "Server is running" {
			t.Errorf("status = %v", body["status"])
		}
		if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
			t.Errorf("timestamp %v is not RFC3339: %v", body["timestamp"], err)
		}
		if uptime, ok := body["uptime"].(float64); !ok || uptime < 0 {
			t.Errorf("uptime = %v, want non-negative number", body["uptime"])
		}
	}
}

func TestWelcomeAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Welcome") {
		t.Errorf("GET / = %d %q, want welcome text", rec.Code, rec.Body.String())
	}

	for _, path := range []string{"/nope", "/api-key/extra", "/health/"} {
		rec := do(s, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
			continue
		}
		if body := decode(t, rec); body["error"] != "Endpoint not found" {
			t.Errorf("GET %s error = %v", path, body["error"])
		}
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		origin string
		want   string
	}{
		{"dev localhost any port", nil, "http://localhost:3000", "http://localhost:3000"},
		{"dev loopback ip", nil, "http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"dev foreign origin", nil, "https://evil.example.com", ""},
		{"configured origin", map[string]string{"CORS_ALLOWED_ORIGINS": "https://weather.example.com"}, "https://weather.example.com", "https://weather.example.com"},
		{"production without origins", map[string]string{"NODE_ENV": "production"}, "http://localhost:3000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.env)

			rec := do(s, http.MethodGet, "/health", map[string]string{"Origin": tt.origin})

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	dev := do(newTestServer(t, nil), http.MethodGet, "/health", nil)
	prod := do(newTestServer(t, map[string]string{"NODE_ENV": "production"}), http.MethodGet, "/health", nil)

	for name, rec := range map[string]*httptest.ResponseRecorder{"development": dev, "production": prod} {
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("%s X-Content-Type-Options = %q", name, got)
		}
		if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Errorf("%s X-Frame-Options = %q", name, got)
		}
		if rec.Header().Get("Content-Security-Policy") == "" {
			t.Errorf("%s Content-Security-Policy missing", name)
		}
		if rec.Header().Get("Referrer-Policy") == "" {
			t.Errorf("%s Referrer-Policy missing", name)
		}
	}

	if got := dev.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("development Strict-Transport-Security = %q, want none", got)
	}
	if got := prod.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("production Strict-Transport-Security missing")
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/health", nil)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID missing")
	}

	rec = do(s, http.MethodGet, "/health", map[string]string{RequestIDHeader: "trace-42"})
	if got := rec.Header().Get(RequestIDHeader); got != "trace-42" {
		t.Errorf("X-Request-ID = %q, want incoming id", got)
	}
}

func TestRecoverer(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	tests := []struct {
		name        string
		verbose     bool
		wantMessage bool
	}{
		{"development echoes message", true, true},
		{"production hides message", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			recoverer(logger.Discard(), tt.verbose)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			body := decode(t, rec)
			if body["error"] != "Internal server error" {
				t.Errorf("error = %v", body["error"])
			}
			if _, ok := body["message"]; ok != tt.wantMessage {
				t.Errorf("message present = %v, want %v", ok, tt.wantMessage)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "***",
		"abcd":         "****",
		"abcdef123456": "********3456",
	}

	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
