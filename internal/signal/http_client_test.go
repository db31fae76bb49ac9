package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 3
	return cfg
}

func TestHTTPClientBreakerOpensUnderConcurrentFailures(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := NewRateLimitedHTTPClient(testHTTPClientConfig(), testLogger())

	// One client is shared by every engine during the fan-out, so the
	// breaker must tolerate concurrent callers.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(context.Background(), upstream.URL)
			if resp != nil {
				resp.Body.Close()
			}
			assert.Error(t, err)
		}()
	}
	wg.Wait()

	_, err := client.Get(context.Background(), upstream.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestHTTPClientBreakerResetsOnSuccess(t *testing.T) {
	var failing bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	client := NewRateLimitedHTTPClient(testHTTPClientConfig(), testLogger())
	ctx := context.Background()

	// Two failures stay below the threshold of three
	failing = true
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ctx, upstream.URL)
		if resp != nil {
			resp.Body.Close()
		}
		assert.Error(t, err)
	}

	failing = false
	resp, err := client.Get(ctx, upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()

	// The success cleared the failure count, so two more failures still
	// leave the breaker closed.
	failing = true
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ctx, upstream.URL)
		if resp != nil {
			resp.Body.Close()
		}
		assert.Error(t, err)
	}
	failing = false
	resp, err = client.Get(ctx, upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()
}
