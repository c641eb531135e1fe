package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/ngmaloney/weather-terminal/internal/models"
)

// RetryPolicy bounds key acquisition. MaxRetries counts attempts after the first.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// HTTPKeyProvider fetches the credential from the key provider's /api-key endpoint
type HTTPKeyProvider struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// NewKeyProvider creates a key provider client for endpoint
func NewKeyProvider(endpoint string) *HTTPKeyProvider {
	return &HTTPKeyProvider{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent: "WeatherTerminal/1.0 (github.com/ngmaloney/weather-terminal)",
	}
}

type keyResponse struct {
	APIKey    string `json:"apiKey"`
	ExpiresAt *int64 `json:"expiresAt"` // epoch millis
}

// GetKey implements KeyProvider
func (p *HTTPKeyProvider) GetKey(ctx context.Context) (models.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: fetching key: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Credential{}, fmt.Errorf("key provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var kr keyResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return models.Credential{}, fmt.Errorf("%w: %w", ErrInvalidKeyResponse, err)
	}
	if kr.APIKey == "" {
		return models.Credential{}, ErrInvalidKeyResponse
	}

	cred := models.Credential{Key: kr.APIKey}
	if kr.ExpiresAt != nil {
		cred.ExpiresAt = time.UnixMilli(*kr.ExpiresAt)
	}
	return cred, nil
}

// AcquireKey asks p for a credential, waiting policy.Delay between attempts.
// It gives up with ErrKeyUnavailable once policy.MaxRetries retries have failed.
func AcquireKey(ctx context.Context, p KeyProvider, policy RetryPolicy, logger *log.Logger) (models.Credential, error) {
	if logger == nil {
		logger = log.Default()
	}

	attempts := 0
	op := func() (models.Credential, error) {
		attempts++

		cred, err := p.GetKey(ctx)
		if err == nil {
			switch {
			case cred.Key == "":
				err = ErrInvalidKeyResponse
			case cred.Expired(time.Now()):
				err = ErrKeyExpired
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return models.Credential{}, backoff.Permanent(ctx.Err())
			}
			return models.Credential{}, err
		}
		return cred, nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.MaxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		logger.Warn("key acquisition failed, retrying", "attempt", attempts, "wait", wait, "err", err)
	}

	cred, err := backoff.RetryNotifyWithData(op, b, notify)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w after %d attempts: %w", ErrKeyUnavailable, attempts, err)
	}

	logger.Debug("acquired weather API key", "attempts", attempts, "expires", cred.ExpiresAt)
	return cred, nil
}
