// Package ratelimit provides the in-memory RateLimitStore used to throttle login attempts.
package ratelimit

import (
	"sync"
	"time"

	"gatehouse/config"
	"gatehouse/internal/domain/service"

	"golang.org/x/time/rate"
)

// idleTTL is how long an untouched client bucket is kept before it is dropped.
const idleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps one token bucket per key in process memory.
// Buckets are not shared between instances.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore builds a store from auth.loginRateLimit.
func NewMemoryStore(cfg *config.Config) service.RateLimitStore {
	perMinute, burst := 10, 5
	if cfg.Auth != nil {
		if cfg.Auth.LoginRateLimit.PerMinute > 0 {
			perMinute = cfg.Auth.LoginRateLimit.PerMinute
		}
		if cfg.Auth.LoginRateLimit.Burst > 0 {
			burst = cfg.Auth.LoginRateLimit.Burst
		}
	}

	return newMemoryStore(perMinute, burst, time.Now)
}

func newMemoryStore(perMinute, burst int, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		buckets:   make(map[string]*bucket),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		now:       now,
		lastSweep: now(),
	}
}

// Allow consumes one token from the key's bucket and reports whether one was available.
func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepIdle(now)

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// sweepIdle drops buckets untouched for idleTTL. Callers hold s.mu.
func (s *MemoryStore) sweepIdle(now time.Time) {
	if now.Sub(s.lastSweep) < idleTTL {
		return
	}

	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) >= idleTTL {
			delete(s.buckets, key)
		}
	}
	s.lastSweep = now
}
