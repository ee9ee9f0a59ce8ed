// Package espn provides a rate-limited HTTP client for the public ESPN
// NBA site API: the scoreboard (games by date) and game summary (box
// score) endpoints.
//
// ESPN is treated as an untrusted but generally reliable source; callers
// pass every extracted line through the scorer validator.
package espn

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public ESPN site API root for NBA data.
const DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"

const defaultBackoff = 2 * time.Second

// Client is the shared HTTP client for the scoreboard and summary
// endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	logger     *slog.Logger
}

// NewClient creates an ESPN client with rate limiting and bounded retry.
func NewClient(baseURL string, requestsPerMinute, retries int, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retries:    retries,
		backoff:    defaultBackoff,
		logger:     logger,
	}
}

// get performs a rate-limited GET with bounded linear backoff. Transport
// errors and 5xx responses are retried; anything else fails immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying ESPN request", "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, retryable, err := c.doOnce(ctx, u, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, u, path string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("ESPN %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("ESPN %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	return body, false, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
