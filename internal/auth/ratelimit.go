package auth

import (
	"sync"
	"time"
)

const (
	// DefaultMaxLoginAttempts failures trigger a lockout.
	DefaultMaxLoginAttempts = 5

	// DefaultLockoutDuration is how long the lockout holds.
	DefaultLockoutDuration = 15 * time.Minute
)

// LockoutStatus describes the limiter state after a failure or a
// check.
type LockoutStatus struct {
	Locked      bool
	LockedUntil time.Time
	Remaining   int
}

// RateLimiter counts failed logins and locks further attempts out
// after too many. State lives in process memory only: a restart
// clears it, the same scoping the original had with its per-tab
// counter.
type RateLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time

	failures    int
	lockedUntil time.Time
}

type RateLimiterOption func(*RateLimiter)

func WithRateLimiterClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) { l.now = now }
}

func NewRateLimiter(maxAttempts int, lockout time.Duration, opts ...RateLimiterOption) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}

	if lockout <= 0 {
		lockout = DefaultLockoutDuration
	}

	l := &RateLimiter{
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// RecordFailure registers one failed attempt and reports whether the
// lockout just engaged.
func (l *RateLimiter) RecordFailure() LockoutStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures++

	if l.failures >= l.maxAttempts {
		l.lockedUntil = l.now().Add(l.lockout)

		return LockoutStatus{Locked: true, LockedUntil: l.lockedUntil}
	}

	return LockoutStatus{Remaining: l.maxAttempts - l.failures}
}

// Status reports whether a previous lockout is still active. An
// expired lockout is cleared here, counter included, so the next
// check starts fresh.
func (l *RateLimiter) Status() LockoutStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lockedUntil.IsZero() {
		return LockoutStatus{Remaining: l.maxAttempts - l.failures}
	}

	if l.now().Before(l.lockedUntil) {
		return LockoutStatus{Locked: true, LockedUntil: l.lockedUntil}
	}

	l.failures = 0
	l.lockedUntil = time.Time{}

	return LockoutStatus{Remaining: l.maxAttempts}
}

// Reset clears the counter after a successful login.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures = 0
	l.lockedUntil = time.Time{}
}
