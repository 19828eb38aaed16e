package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpereira/faturacao/internal/auth"
)

// Low iteration count keeps the suite fast; the derivation path is the
// same.
const testIterations = 1000

func TestCredentialsRoundTrip(t *testing.T) {
	creds := auth.NewCredentials(testIterations)

	salt, err := creds.GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, 32) // 16 bytes hex-encoded

	hash, err := creds.HashPassword("Admin123", salt)
	require.NoError(t, err)
	assert.Len(t, hash, 64) // 32 bytes hex-encoded

	assert.True(t, creds.VerifyPassword("Admin123", salt, hash))
	assert.False(t, creds.VerifyPassword("admin123", salt, hash))
	assert.False(t, creds.VerifyPassword("", salt, hash))
}

func TestCredentialsDeterministic(t *testing.T) {
	creds := auth.NewCredentials(testIterations)

	salt, err := creds.GenerateSalt()
	require.NoError(t, err)

	h1, err := creds.HashPassword("Admin123", salt)
	require.NoError(t, err)

	h2, err := creds.HashPassword("Admin123", salt)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}

func TestCredentialsSaltMatters(t *testing.T) {
	creds := auth.NewCredentials(testIterations)

	s1, err := creds.GenerateSalt()
	require.NoError(t, err)

	s2, err := creds.GenerateSalt()
	require.NoError(t, err)

	require.NotEqual(t, s1, s2)

	h1, err := creds.HashPassword("Admin123", s1)
	require.NoError(t, err)

	h2, err := creds.HashPassword("Admin123", s2)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestCredentialsTamperedHash(t *testing.T) {
	creds := auth.NewCredentials(testIterations)

	salt, err := creds.GenerateSalt()
	require.NoError(t, err)

	hash, err := creds.HashPassword("Admin123", salt)
	require.NoError(t, err)

	tampered := "0" + hash[1:]
	if tampered == hash {
		tampered = "1" + hash[1:]
	}

	assert.False(t, creds.VerifyPassword("Admin123", salt, tampered))
}

func TestValidatePasswordStrength(t *testing.T) {
	type testCase struct {
		name     string
		password string
		wantErr  error
	}

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	long[0] = '1'

	tests := []testCase{
		{name: "Valid", password: "Admin123"},
		{name: "TooShort", password: "Ab1", wantErr: auth.ErrPasswordTooShort},
		{name: "TooLong", password: string(long), wantErr: auth.ErrPasswordTooLong},
		{name: "NoLetter", password: "12345678", wantErr: auth.ErrPasswordNoLetter},
		{name: "NoDigit", password: "abcdefgh", wantErr: auth.ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePasswordStrength(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
