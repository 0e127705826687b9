// Package fetch issues paginated GET requests against the source API with
// retry and backoff on transient failures.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pulsefeed/internal/config"
)

type Client struct {
	baseURL    string
	apiKey     string
	keyInQuery bool
	userAgent  string
	maxRetries int
	backoff    time.Duration
	http       *http.Client
	limiter    *RateLimiter
	sleep      func(time.Duration)
}

func NewClient(cfg config.Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		// OpenWeather wants the key as a query param; OTX as a header.
		keyInQuery: cfg.Source == config.SourceWeather,
		userAgent:  fmt.Sprintf("pulsefeed/1.0 (%s)", cfg.ConnectorName),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.InitialBackoff(),
		http:       &http.Client{Timeout: cfg.HTTPTimeout()},
		sleep:      time.Sleep,
	}
	if cfg.RatePerMinute > 0 {
		c.limiter = NewRateLimiter(cfg.RatePerMinute)
	}
	return c
}

// GetJSON fetches baseURL+path and decodes the JSON body. Transport errors,
// 429 and 5xx responses are retried with doubling backoff up to the retry
// ceiling; a 429 with a numeric Retry-After header sleeps that long instead
// of the current backoff. Any other non-200 status fails immediately with
// an HTTPStatusError.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values) (any, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.keyInQuery {
		params.Set("appid", c.apiKey)
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			c.limiter.Wait()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if !c.keyInQuery {
			req.Header.Set("X-OTX-API-KEY", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			slog.Warn("request failed", "attempt", attempt, "max", c.maxRetries, "err", err)
			lastErr = err
			c.sleep(backoff)
			backoff *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				slog.Warn("read body failed", "attempt", attempt, "err", readErr)
				lastErr = readErr
				c.sleep(backoff)
				backoff *= 2
				continue
			}
			var out any
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, fmt.Errorf("decode response from %s: %w", u, err)
			}
			return out, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.ParseFloat(ra, 64); err == nil && secs >= 0 {
					delay = time.Duration(secs * float64(time.Second))
				}
			}
			slog.Warn("rate limited", "sleep", delay, "attempt", attempt)
			lastErr = &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
			c.sleep(delay)
			backoff *= 2

		case resp.StatusCode >= 500:
			slog.Warn("server error", "status", resp.StatusCode, "sleep", backoff, "attempt", attempt)
			lastErr = &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
			c.sleep(backoff)
			backoff *= 2

		default:
			return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
		}
	}

	return nil, &RetryExhaustedError{URL: u, Attempts: c.maxRetries, Err: lastErr}
}
