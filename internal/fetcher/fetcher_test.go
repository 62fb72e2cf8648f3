package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.MinDelay == 0 {
		cfg.MinDelay = time.Millisecond
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Millisecond
	}
	return New(cfg, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Contains(t, r.Header.Get("User-Agent"), "boe-ingest")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{})
	res, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []byte("<html>ok</html>"), res.Body)
	require.Equal(t, "text/html", res.ContentType)
	require.Equal(t, srv.URL, res.FinalURL)
}

func TestFetchRetriesExhaustedOn503(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 3})
	_, err := c.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 4, attempts, "maxRetries+1 attempts expected")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, http.StatusServiceUnavailable, exhausted.StatusCode)
	require.Equal(t, 4, exhausted.Attempts)
}

func TestFetchRecoversAfterTransient(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 3})
	res, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 2, attempts)
}

func TestFetchDoesNotRetryOther4xx(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MaxRetries: 3})
	res, err := c.Fetch(context.Background(), srv.URL)

	// Non-retryable statuses are the caller's problem, not an error.
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Equal(t, 1, attempts)
}

func TestFetchThrottleSpacesRequestStarts(t *testing.T) {
	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{MinDelay: 200 * time.Millisecond})
	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	require.Len(t, arrivals, 3)
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(arrivals[i-1])
		require.GreaterOrEqual(t, gap, 150*time.Millisecond,
			"consecutive request starts must honor the minimum delay")
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, Config{MaxRetries: 5, BackoffBase: time.Hour})

	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, srv.URL)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after cancellation")
	}
}
