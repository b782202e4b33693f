package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNew_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Options{
		Timeout:      time.Second,
		RetryMax:     3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	}, zerolog.Nop())

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNew_GivesUpAfterRetryMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(Options{Timeout: time.Second, RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond}, zerolog.Nop())

	_, err := client.Get(srv.URL)
	assert.Error(t, err)
}

func TestAdaptiveRateLimiter_FailAndRecover(t *testing.T) {
	limiter := NewAdaptiveRateLimiter(10, 1, 5)

	limiter.Fail()
	assert.InDelta(t, 2.0, float64(limiter.Limit()), 0.0001)

	limiter.Fail()
	assert.Equal(t, rate.Limit(minLimit), limiter.Limit())

	for i := 0; i < 50; i++ {
		limiter.Succeed()
	}
	assert.Equal(t, rate.Limit(10), limiter.Limit())
}

func TestAdaptiveRateLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewAdaptiveRateLimiter(1, 1, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.Wait(ctx))
}

func TestZerologLeveled_DropsURLQuery(t *testing.T) {
	var buf bytes.Buffer
	l := ZerologLeveled{Logger: zerolog.New(&buf)}

	l.Error("request failed", "method", "GET", "url", "http://127.0.0.1:1/dm?key=SECRET-KEY-123&mode=walking")

	assert.NotContains(t, buf.String(), "SECRET-KEY-123")
	assert.Contains(t, buf.String(), `"url":"http://127.0.0.1:1/dm"`)
	assert.Contains(t, buf.String(), `"method":"GET"`)
}
