// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search backends.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 10 * time.Second
)

// RetryPolicy retries HTTP requests answered with 429 Too Many Requests.
// The zero value retries five times starting at a ten second delay that
// doubles on every attempt.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt (default 5).
	MaxRetries int

	// BaseDelay is the first back-off delay (default 10s). A Retry-After
	// header given in seconds replaces the computed delay when it is longer.
	BaseDelay time.Duration

	// Logger receives one warning per back-off.
	Logger *zap.Logger
}

// Do executes req and retries on HTTP 429. Other statuses, including server
// errors, are returned to the caller untouched. On each 429 the response body
// is drained and closed before sleeping. If ctx is cancelled during a back-off
// Do returns ctx.Err(). After exhausting retries the last 429 response is
// returned so the caller can inspect it.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := delay << attempt
		if ra := retryAfter(resp.Header.Get("Retry-After")); ra > wait {
			wait = ra
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Warn("rate limited, backing off",
			zap.String("host", req.URL.Host),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a Retry-After header expressed in whole seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
