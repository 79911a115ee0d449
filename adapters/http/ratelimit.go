package authhttp

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Rate limit bucket names.
const (
	RLSignUp            = "sign_up"
	RLSignIn            = "sign_in"
	RLFederatedStart    = "federated_start"
	RLFederatedCallback = "federated_callback"
)

// RateLimiter is consulted per bucket+key before handling a request.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// ClientIPFunc extracts the client IP used as the rate limit key.
type ClientIPFunc func(r *http.Request) string

// DefaultClientIP uses the connection's remote address.
func DefaultClientIP() ClientIPFunc {
	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// Limit is requests per minute with an initial burst.
type Limit struct {
	PerMinute int
	Burst     int
}

// DefaultRateLimits returns conservative per-bucket limits for the auth
// surface.
func DefaultRateLimits() map[string]Limit {
	return map[string]Limit{
		RLSignUp:            {PerMinute: 10, Burst: 5},
		RLSignIn:            {PerMinute: 30, Burst: 10},
		RLFederatedStart:    {PerMinute: 30, Burst: 10},
		RLFederatedCallback: {PerMinute: 30, Burst: 10},
	}
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

// memoryLimiter is a per-process token bucket limiter; suitable for dev and
// single-instance deployments.
type memoryLimiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string]*tokenBucket
}

// NewMemoryLimiter builds an in-process RateLimiter from per-bucket limits.
func NewMemoryLimiter(limits map[string]Limit) RateLimiter {
	return &memoryLimiter{limits: limits, buckets: make(map[string]*tokenBucket)}
}

func (m *memoryLimiter) AllowNamed(bucket, key string) (bool, error) {
	lim, ok := m.limits[bucket]
	if !ok || lim.PerMinute <= 0 {
		return true, nil
	}
	burst := lim.Burst
	if burst <= 0 {
		burst = lim.PerMinute
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	tb, ok := m.buckets[bucket+"|"+key]
	if !ok {
		tb = &tokenBucket{tokens: float64(burst), last: now}
		m.buckets[bucket+"|"+key] = tb
	}
	refill := now.Sub(tb.last).Minutes() * float64(lim.PerMinute)
	tb.tokens += refill
	if tb.tokens > float64(burst) {
		tb.tokens = float64(burst)
	}
	tb.last = now
	if tb.tokens < 1 {
		return false, nil
	}
	tb.tokens--
	return true, nil
}
