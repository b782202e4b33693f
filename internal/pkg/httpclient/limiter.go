package httpclient

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const (
	decreaseFactor = 0.8 // Reduce aggressively on failure
	increaseFactor = 0.2 // Increase conservatively on success
	minLimit       = 1   // Minimum requests per second
)

// RateLimiter paces outbound requests and adapts to upstream health
type RateLimiter interface {
	Succeed()
	Fail()
	Wait(context.Context) error
}

// AdaptiveRateLimiter lowers its rate after failed responses and slowly
// raises it again after successful ones.
type AdaptiveRateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	ceiling     rate.Limit
	limiter     *rate.Limiter
	maxIncrease rate.Limit
}

// NewAdaptiveRateLimiter creates a limiter starting (and capped) at startingLimit requests per second
func NewAdaptiveRateLimiter(startingLimit rate.Limit, startingBurst int, maxIncrease rate.Limit) *AdaptiveRateLimiter {
	return &AdaptiveRateLimiter{
		limit:       startingLimit,
		ceiling:     startingLimit,
		limiter:     rate.NewLimiter(startingLimit, startingBurst),
		maxIncrease: maxIncrease,
	}
}

// Fail reduces the current limit
func (a *AdaptiveRateLimiter) Fail() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.setLimit(max(rate.Limit(float64(a.limit)*(1-decreaseFactor)), minLimit))
}

// Succeed raises the current limit, never above the starting limit
func (a *AdaptiveRateLimiter) Succeed() {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := min(rate.Limit(float64(a.limit)*(1+increaseFactor)), a.limit+a.maxIncrease, a.ceiling)
	a.setLimit(next)
}

// Wait blocks until a request may be sent or ctx is done
func (a *AdaptiveRateLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Limit returns the current limit
func (a *AdaptiveRateLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit
}

func (a *AdaptiveRateLimiter) setLimit(newLimit rate.Limit) {
	a.limit = newLimit
	a.limiter.SetLimit(a.limit)
}

type rateLimitedRoundTripper struct {
	transport http.RoundTripper
	limiter   RateLimiter
}

func (rt *rateLimitedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := rt.transport.RoundTrip(req)
	if err != nil {
		rt.limiter.Fail()
		return nil, err
	}

	if resp.StatusCode >= 400 {
		rt.limiter.Fail()
	} else {
		rt.limiter.Succeed()
	}

	return resp, nil
}

func addRateLimiter(client *http.Client, limiter RateLimiter) {
	rt := &rateLimitedRoundTripper{limiter: limiter}
	if client.Transport == nil {
		rt.transport = http.DefaultTransport
	} else {
		rt.transport = client.Transport
	}
	client.Transport = rt
}
