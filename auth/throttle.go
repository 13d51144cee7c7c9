package auth

import (
	"sync"
	"time"
)

// ThrottleConfig configures the failed-validation throttle.
type ThrottleConfig struct {
	// Rate is the number of failure credits restored per second.
	// Default: 1.
	Rate float64

	// Burst is the number of failures tolerated before throttling.
	// Default: 10.
	Burst int
}

// FailureThrottle is a per-key token bucket that slows down callers
// presenting a stream of invalid tokens. Successful validations never
// consume credit.
type FailureThrottle struct {
	config ThrottleConfig

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens      float64
	lastRefresh time.Time
}

// NewFailureThrottle creates a throttle.
func NewFailureThrottle(config ThrottleConfig) *FailureThrottle {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	return &FailureThrottle{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether the key still has failure credit left.
func (t *FailureThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.refillLocked(key)
	return b.tokens >= 1
}

// RecordFailure debits one failure credit from the key's bucket.
func (t *FailureThrottle) RecordFailure(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.refillLocked(key)
	if b.tokens >= 1 {
		b.tokens--
	} else {
		b.tokens = 0
	}
}

func (t *FailureThrottle) refillLocked(key string) *bucket {
	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(t.config.Burst), lastRefresh: now}
		t.buckets[key] = b
		return b
	}

	elapsed := now.Sub(b.lastRefresh).Seconds()
	b.tokens += elapsed * t.config.Rate
	if max := float64(t.config.Burst); b.tokens > max {
		b.tokens = max
	}
	b.lastRefresh = now
	return b
}

// throttleKey derives a stable non-secret bucket key from a token.
func throttleKey(token string) string {
	return cacheKey(token)
}
