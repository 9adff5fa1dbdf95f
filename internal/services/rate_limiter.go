package services

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RateLimiter is a sliding-window counter keyed by caller identity
// (client IP). It is injected into the handlers that need it so tests can
// construct their own instance and reset it freely. The key set lives in
// an LRU so an attacker rotating addresses cannot grow it without bound.
type RateLimiter struct {
	mu     sync.Mutex
	hits   *lru.Cache[string, []time.Time]
	limit  int
	window time.Duration
}

// NewRateLimiter allows `limit` events per `window` per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	cache, err := lru.New[string, []time.Time](4096)
	if err != nil {
		log.Fatalf("Failed to create rate limiter cache: %v", err)
	}
	return &RateLimiter{
		hits:   cache,
		limit:  limit,
		window: window,
	}
}

// Allow records an event for key and reports whether it is within the
// limit. Events older than the window are dropped on each call.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	stamps, _ := l.hits.Get(key)
	fresh := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= l.limit {
		l.hits.Add(key, fresh)
		return false
	}

	fresh = append(fresh, now)
	l.hits.Add(key, fresh)
	return true
}

// Reset clears the window for a single key.
func (l *RateLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits.Remove(key)
}
