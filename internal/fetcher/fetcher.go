// Package fetcher implements the rate-limited, retrying HTTP client used
// against the gazette endpoints.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iurisdata/boe-ingest/internal/boe"
	"github.com/iurisdata/boe-ingest/internal/metrics"
)

// Config controls politeness and retry behavior.
type Config struct {
	UserAgent   string
	MinDelay    time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	Timeout     time.Duration
}

// Defaults applied when a field is zero.
const (
	defaultMinDelay    = 500 * time.Millisecond
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "boe-ingest/1.0 (+https://github.com/iurisdata/boe-ingest)"
)

// Client fetches single URLs, spacing request starts by at least MinDelay
// and retrying 429/5xx responses with exponential backoff. The embedded
// limiter is the only shared mutable state; one Client must be shared by
// every caller hitting the same upstream endpoint.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Client with its own throttle.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = defaultMinDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.MinDelay), 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Fetch issues a GET for url. Transient statuses (429, 5xx) are retried up
// to MaxRetries times; any other status is returned to the caller as-is.
func (c *Client) Fetch(ctx context.Context, url string) (boe.FetchResult, error) {
	attempts := c.cfg.MaxRetries + 1
	backoff := c.cfg.BackoffBase
	var lastStatus int

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.FetchRetries.Inc()
			if err := sleep(ctx, backoff); err != nil {
				return boe.FetchResult{}, fmt.Errorf("backoff wait: %w", err)
			}
			backoff *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return boe.FetchResult{}, fmt.Errorf("throttle wait: %w", err)
		}

		res, err := c.doOnce(ctx, url)
		if err != nil {
			return boe.FetchResult{}, err
		}
		if !transient(res.StatusCode) {
			return res, nil
		}
		lastStatus = res.StatusCode
		if res.StatusCode == http.StatusTooManyRequests {
			metrics.RateLimitHits.Inc()
		}
		c.logger.Warn("transient response, will retry",
			zap.String("url", url),
			zap.Int("status_code", res.StatusCode),
			zap.Int("attempt", attempt+1),
		)
	}

	return boe.FetchResult{}, &ExhaustedError{URL: url, StatusCode: lastStatus, Attempts: attempts}
}

func (c *Client) doOnce(ctx context.Context, url string) (boe.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return boe.FetchResult{}, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	metrics.FetchRequests.Inc()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.FetchErrors.Inc()
		return boe.FetchResult{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.FetchErrors.Inc()
		return boe.FetchResult{}, fmt.Errorf("read body of %s: %w", url, err)
	}

	return boe.FetchResult{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

func transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// sleep waits for delay unless the context finishes first.
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
