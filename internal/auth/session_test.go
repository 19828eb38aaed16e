package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpereira/faturacao/internal/auth"
)

func TestSessionsRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := auth.NewSessions("secret", 8*time.Hour,
		auth.WithSessionClock(func() time.Time { return now }))

	token, err := sessions.Create("F001")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identifier, ok := sessions.Validate(token)
	assert.True(t, ok)
	assert.Equal(t, "F001", identifier)

	exp, err := sessions.ExpiresAt(token)
	require.NoError(t, err)
	assert.Equal(t, now.Add(8*time.Hour), exp)
}

func TestSessionsExpiry(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := auth.NewSessions("secret", 8*time.Hour,
		auth.WithSessionClock(func() time.Time { return now }))

	token, err := sessions.Create("F001")
	require.NoError(t, err)

	now = now.Add(8*time.Hour + time.Minute)

	_, ok := sessions.Validate(token)
	assert.False(t, ok)
}

func TestSessionsExtendSlidesExpiry(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := auth.NewSessions("secret", 8*time.Hour,
		auth.WithSessionClock(func() time.Time { return now }))

	token, err := sessions.Create("F001")
	require.NoError(t, err)

	now = now.Add(4 * time.Hour)

	fresh, err := sessions.Extend(token)
	require.NoError(t, err)

	exp, err := sessions.ExpiresAt(fresh)
	require.NoError(t, err)
	assert.Equal(t, now.Add(8*time.Hour), exp)

	// An expired token cannot be extended.
	now = now.Add(9 * time.Hour)
	_, err = sessions.Extend(fresh)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestSessionsTamperedToken(t *testing.T) {
	sessions := auth.NewSessions("secret", 8*time.Hour)

	token, err := sessions.Create("F001")
	require.NoError(t, err)

	_, ok := sessions.Validate(token + "x")
	assert.False(t, ok)

	other := auth.NewSessions("other-secret", 8*time.Hour)
	_, ok = other.Validate(token)
	assert.False(t, ok)
}

func TestSessionsEmpty(t *testing.T) {
	sessions := auth.NewSessions("secret", 8*time.Hour)

	_, ok := sessions.Validate("")
	assert.False(t, ok)

	_, err := sessions.Create("")
	assert.ErrorIs(t, err, auth.ErrNoSession)
}
