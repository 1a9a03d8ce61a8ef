package assembler

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimit is the number of report generations a conversation may
	// start per window when no explicit limit is configured.
	DefaultRateLimit = 10

	defaultRateLimitWindow = time.Minute
)

// RateLimiter enforces a per-conversation sliding-window limit on report
// generations. It is safe for concurrent use and is normally shared by every
// conversation's Assembler.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	counters map[string][]time.Time
}

// NewRateLimiter allows at most limit generations per key within window.
// Non-positive arguments select the defaults.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return &RateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string][]time.Time),
	}
}

// Allow records a generation for key and reports whether it is within quota.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	valid := r.prune(key, now)
	if len(valid) >= r.limit {
		r.counters[key] = valid
		return false
	}
	r.counters[key] = append(valid, now)
	return true
}

// Remaining returns how many generations key may still start in the window.
func (r *RateLimiter) Remaining(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	valid := r.prune(key, r.now())
	if valid != nil {
		r.counters[key] = valid
	}
	return max(r.limit-len(valid), 0)
}

// prune drops timestamps outside the window. Must be called with mu held.
func (r *RateLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	existing := r.counters[key]
	valid := existing[:0]
	for _, t := range existing {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(r.counters, key)
		return nil
	}
	return valid
}
