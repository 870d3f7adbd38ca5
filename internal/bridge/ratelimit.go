package bridge

import (
	"sync"
	"time"
)

// RateLimiter is the ledger of the last accepted hosted call per session.
// Allow checks and records under one lock so two concurrent callers can never
// both pass the gap check.
type RateLimiter struct {
	mu   sync.Mutex
	gap  time.Duration
	last map[string]time.Time
	now  func() time.Time
}

func NewRateLimiter(gap time.Duration) *RateLimiter {
	return &RateLimiter{gap: gap, last: make(map[string]time.Time), now: time.Now}
}

// WithClock replaces the time source.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

// Allow records the call and returns true when at least gap has passed since
// the last accepted call for key. A rejected call leaves the ledger unchanged.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if last, ok := r.last[key]; ok && now.Sub(last) < r.gap {
		return false
	}
	r.last[key] = now
	return true
}

// Remaining returns how long key must wait before the next accepted call.
func (r *RateLimiter) Remaining(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.last[key]
	if !ok {
		return 0
	}
	if d := r.gap - r.now().Sub(last); d > 0 {
		return d
	}
	return 0
}
