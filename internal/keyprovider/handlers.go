package keyprovider

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

type keyResponse struct {
	APIKey    string `json:"apiKey"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // epoch millis
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"` // seconds
}

func (s *Server) handleAPIKey(w http.ResponseWriter, r *http.Request) {
	cred, err := s.GetKey()
	if err != nil {
		if errors.Is(err, ErrMisconfigured) {
			s.logger.Error("refusing key request", "err", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := keyResponse{APIKey: cred.Key}
	if !cred.ExpiresAt.IsZero() {
		resp.ExpiresAt = cred.ExpiresAt.UnixMilli()
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "Server is running",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(s.started).Seconds(),
	})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Welcome to the Weather API backend!")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
