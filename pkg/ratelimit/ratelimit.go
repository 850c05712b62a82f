// Package ratelimit provides a sliding-window attempt limiter for login
// throttling. State is owned explicitly by the limiter value; there is
// no package-level storage.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts attempts per key inside a sliding window and rejects
// keys that exceed the maximum. Entries from expired windows are
// evicted on access.
type Limiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

// New creates a limiter allowing maxAttempts per key per window.
func New(maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		attempts:    make(map[string][]time.Time),
	}
}

// NewWithClock creates a limiter with an injected time source.
func NewWithClock(maxAttempts int, window time.Duration, now func() time.Time) *Limiter {
	l := New(maxAttempts, window)
	l.now = now

	return l
}

// Allow reports whether the key is under its limit, and how many
// attempts remain. It does not record an attempt.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key)

	if len(recent) >= l.maxAttempts {
		return false, 0
	}

	return true, l.maxAttempts - len(recent)
}

// Record registers one attempt for the key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts[key] = append(l.prune(key), l.now())
}

// Reset clears all attempts for the key, typically after a successful
// login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, key)
}

// prune drops attempts outside the window. Caller must hold the lock.
func (l *Limiter) prune(key string) []time.Time {
	cutoff := l.now().Add(-l.window)

	recent := l.attempts[key][:0]

	for _, ts := range l.attempts[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) == 0 {
		delete(l.attempts, key)

		return nil
	}

	l.attempts[key] = recent

	return recent
}
