package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the refill rate.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity.
	BurstSize int
	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration
	// KeyFunc extracts the bucket key. Default: client IP.
	KeyFunc func(r *http.Request) string
}

// ContactRateLimiterConfig allows a short burst of inquiries per visitor and
// then one every ten seconds.
func ContactRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 0.1,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		KeyFunc:           GetClientIP,
	}
}

// LoginRateLimiterConfig slows password guessing on the admin login.
func LoginRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 0.2,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		KeyFunc:           GetClientIP,
	}
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is an in-memory per-key token bucket limiter.
type RateLimiter struct {
	config  RateLimiterConfig
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter starts a limiter and its cleanup goroutine. Call Stop on
// shutdown.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = GetClientIP
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow takes a token for key if one is available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	capacity := float64(rl.config.BurstSize)

	b, ok := rl.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: capacity, lastRefill: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * rl.config.RequestsPerSecond
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.buckets {
				if now.Sub(b.lastRefill) > rl.config.CleanupInterval {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware answers 429 with Retry-After once a key's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := "1"
	if rl.config.RequestsPerSecond > 0 && rl.config.RequestsPerSecond < 1 {
		retryAfter = strconv.Itoa(int(1 / rl.config.RequestsPerSecond))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.config.KeyFunc(r)) {
			w.Header().Set("Retry-After", retryAfter)
			respondTooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
