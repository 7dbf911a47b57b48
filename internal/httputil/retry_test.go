// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fast keeps back-off sleeps out of the test run.
var fast = RetryPolicy{BaseDelay: time.Millisecond}

func newServer(t *testing.T, calls *int32, handler func(n int32, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handler(atomic.AddInt32(calls, 1), w)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRetryPolicy_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(_ int32, w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := fast.Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_RetriesThen200(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(n int32, w http.ResponseWriter) {
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	core, logs := observer.New(zap.WarnLevel)
	p := fast
	p.Logger = zap.New(core)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := p.Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, logs.FilterMessage("rate limited, backing off").Len())
}

func TestRetryPolicy_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(_ int32, w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) })

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	p := fast
	p.MaxRetries = 3
	resp, err := p.Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	// 1 initial + 3 retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_DefaultMaxRetries(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(_ int32, w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) })

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := fast.Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// 1 initial + 5 default retries.
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(_ int32, w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = RetryPolicy{BaseDelay: 500 * time.Millisecond}.Do(ctx, ts.Client(), req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicy_Non429PassesThrough(t *testing.T) {
	var calls int32
	ts := newServer(t, &calls, func(_ int32, w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) })

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := fast.Do(context.Background(), ts.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
	assert.Zero(t, retryAfter("-1"))
}
