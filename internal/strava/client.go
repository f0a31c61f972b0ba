// Package strava is a small client for the Strava v3 activities API with
// rate-limit aware retries.
package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
)

const (
	baseURL = "https://www.strava.com/api/v3"
	perPage = 200
)

const (
	defaultMaxRetries     = 5
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 5 * time.Minute
)

// ErrRateLimited is returned when retries are exhausted on a 429
var ErrRateLimited = errors.New("rate limited")

// Client is a Strava API client with automatic retry and backoff
type Client struct {
	httpClient  *retryablehttp.Client
	accessToken string
	baseURL     string

	rateMu    sync.RWMutex
	rateLimit RateLimitInfo
}

// RetryConfig holds retry/backoff settings
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: defaultMaxRetries,
		MinWait:    defaultInitialBackoff,
		MaxWait:    defaultMaxBackoff,
	}
}

// NewClient creates a Strava API client with the default retry settings
func NewClient(accessToken string) *Client {
	return newClient(accessToken, baseURL, DefaultRetryConfig())
}

// NewClientWithRetryConfig creates a Strava API client with custom retry settings
func NewClientWithRetryConfig(accessToken string, cfg RetryConfig) *Client {
	return newClient(accessToken, baseURL, cfg)
}

// NewClientWithBaseURL creates a Strava API client against another host (for testing)
func NewClientWithBaseURL(accessToken, customBaseURL string) *Client {
	return newClient(accessToken, customBaseURL, DefaultRetryConfig())
}

func newClient(accessToken, baseURL string, cfg RetryConfig) *Client {
	c := &Client{
		accessToken: accessToken,
		baseURL:     baseURL,
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.MaxRetries
	hc.RetryWaitMin = cfg.MinWait
	hc.RetryWaitMax = cfg.MaxWait
	hc.Logger = &logging.LeveledLogger{}
	hc.CheckRetry = checkRetry
	hc.Backoff = backoff
	hc.RequestLogHook = logRequest
	hc.ResponseLogHook = logResponse

	c.httpClient = hc
	return c
}

// checkRetry retries connection errors, 429s and 5xx responses only
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, nil
	case resp.StatusCode >= 500:
		return true, nil
	}
	return false, nil
}

// backoff waits for the rate-limit window on 429 and grows exponentially otherwise
func backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	log := logging.Logger

	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait := time.Duration(seconds) * time.Second
			log.Info().Dur("wait", wait).Int("attempt", attemptNum).Msg("rate limited, honoring Retry-After")
			return wait
		}

		wait := timeUntilNext15MinWindow(time.Now())
		log.Info().Dur("wait", wait).Int("attempt", attemptNum).Msg("rate limited, waiting for 15-minute window reset")
		return wait
	}

	wait := min * time.Duration(1<<uint(attemptNum))
	if wait > max {
		wait = max
	}
	log.Info().Dur("wait", wait).Int("attempt", attemptNum).Dur("max_wait", max).Msg("backing off before retry")
	return wait
}

func logRequest(_ retryablehttp.Logger, req *http.Request, retry int) {
	log := logging.Logger
	if retry > 0 {
		log.Info().Str("url", req.URL.Path).Int("attempt", retry+1).Msg("retrying request")
	}
	if logging.IsTraceEnabled() {
		log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("headers", formatHeaders(req.Header)).
			Msg("request headers")
	}
}

func logResponse(_ retryablehttp.Logger, resp *http.Response) {
	log := logging.Logger
	if logging.IsTraceEnabled() {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("url", resp.Request.URL.Path).
			Str("headers", formatHeaders(resp.Header)).
			Msg("response headers")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		rl := parseRateLimitHeaders(resp.Header, time.Now())
		log.Warn().
			Str("url", resp.Request.URL.Path).
			Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
			Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily)).
			Dur("wait_for_reset", rl.TimeUntil15MinReset).
			Msg("rate limited by API")
	}
}

// WithRetryConfig overrides the retry settings (useful for testing)
func (c *Client) WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) *Client {
	c.httpClient.RetryMax = maxRetries
	c.httpClient.RetryWaitMin = initialBackoff
	c.httpClient.RetryWaitMax = maxBackoff
	return c
}

// GetRateLimit returns the last seen rate limit with reset times recomputed for now
func (c *Client) GetRateLimit() RateLimitInfo {
	c.rateMu.RLock()
	info := c.rateLimit
	c.rateMu.RUnlock()

	info.recalculate(time.Now())
	return info
}

// WaitForRateLimit blocks until the rate limit allows more requests or ctx is done.
func (c *Client) WaitForRateLimit(ctx context.Context) error {
	rl := c.GetRateLimit()
	wait := rl.ShouldWaitForRateLimit()
	if wait <= 0 {
		return nil
	}

	logging.Logger.Info().
		Dur("wait", wait).
		Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
		Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily)).
		Msg("waiting for rate limit window to reset")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		logging.Logger.Info().Msg("rate limit window reset, resuming")
		return nil
	}
}

func (c *Client) updateRateLimit(resp *http.Response) RateLimitInfo {
	rl := parseRateLimitHeaders(resp.Header, time.Now())
	if resp.StatusCode == http.StatusTooManyRequests {
		rl.IsRateLimited = true
	}
	c.rateMu.Lock()
	c.rateLimit = rl
	c.rateMu.Unlock()
	return rl
}

// formatHeaders renders headers for trace logging with credentials redacted
func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value := strings.Join(headers[k], ", ")
		switch strings.ToLower(k) {
		case "authorization", "cookie", "set-cookie":
			value = "[REDACTED]"
		}
		parts = append(parts, fmt.Sprintf("%s: %q", k, value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
