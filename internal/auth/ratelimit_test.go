package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dpereira/faturacao/internal/auth"
)

func TestRateLimiterLocksAfterMaxAttempts(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	limiter := auth.NewRateLimiter(5, 15*time.Minute,
		auth.WithRateLimiterClock(func() time.Time { return now }))

	for i := 1; i <= 4; i++ {
		status := limiter.RecordFailure()
		assert.False(t, status.Locked, "attempt %d", i)
		assert.Equal(t, 5-i, status.Remaining, "attempt %d", i)
	}

	status := limiter.RecordFailure()
	assert.True(t, status.Locked)
	assert.Equal(t, now.Add(15*time.Minute), status.LockedUntil)

	assert.True(t, limiter.Status().Locked)
}

func TestRateLimiterLockoutExpires(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	limiter := auth.NewRateLimiter(5, 15*time.Minute,
		auth.WithRateLimiterClock(func() time.Time { return now }))

	for i := 0; i < 5; i++ {
		limiter.RecordFailure()
	}

	now = now.Add(14 * time.Minute)
	assert.True(t, limiter.Status().Locked)

	now = now.Add(2 * time.Minute)

	status := limiter.Status()
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.Remaining)

	// The counter restarted with the lockout.
	assert.False(t, limiter.RecordFailure().Locked)
}

func TestRateLimiterReset(t *testing.T) {
	limiter := auth.NewRateLimiter(5, 15*time.Minute)

	limiter.RecordFailure()
	limiter.RecordFailure()
	limiter.Reset()

	assert.Equal(t, 5, limiter.Status().Remaining)
}
