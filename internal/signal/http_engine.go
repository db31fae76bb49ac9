package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// HTTPEngine implements Engine for a JSON-over-HTTP signal source. All
// upstream engines share one response contract (a list of RawPick), so one
// client type covers the model, edge, and steam engines.
type HTTPEngine struct {
	httpClient *RateLimitedHTTPClient
	name       string
	url        string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

// NewHTTPEngine creates a new HTTP signal engine client
func NewHTTPEngine(httpClient *RateLimitedHTTPClient, name, url, apiKey string, enabled bool, logger *logrus.Logger) *HTTPEngine {
	return &HTTPEngine{
		httpClient: httpClient,
		name:       name,
		url:        url,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the engine's source tag
func (e *HTTPEngine) Name() string {
	return e.name
}

// IsEnabled returns whether this engine is currently enabled
func (e *HTTPEngine) IsEnabled() bool {
	return e.enabled
}

// Fetch retrieves the engine's current raw picks
func (e *HTTPEngine) Fetch(ctx context.Context) ([]RawPick, error) {
	if !e.enabled {
		return nil, ErrEngineDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, NewEngineError(e.name, ErrCodeNetworkError, "failed to create request", err)
	}

	if e.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewEngineError(e.name, ErrCodeNetworkError, "failed to fetch picks", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewEngineError(e.name, ErrCodeAuthenticationFailed, "invalid API key", nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewEngineError(e.name, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewEngineError(e.name, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var picks []RawPick
	if err := json.NewDecoder(resp.Body).Decode(&picks); err != nil {
		return nil, NewEngineError(e.name, ErrCodeInvalidData, "failed to parse response", err)
	}

	e.logger.WithFields(logrus.Fields{
		"engine": e.name,
		"picks":  len(picks),
	}).Debug("Fetched picks from signal engine")

	return picks, nil
}
