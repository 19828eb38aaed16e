package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionDuration matches the 8h lifetime of the original
// deployment.
const DefaultSessionDuration = 8 * time.Hour

var ErrNoSession = errors.New("no active session")

// Sessions issues and checks session tokens. A token is a signed
// HS256 JWT carrying the user identifier (subject) and an expiry; the
// token itself is what gets persisted, so a hand-edited store cannot
// forge or stretch a session.
type Sessions struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

type SessionOption func(*Sessions)

// WithSessionClock pins the clock, used by tests.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Sessions) { s.now = now }
}

func NewSessions(secret string, duration time.Duration, opts ...SessionOption) *Sessions {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}

	s := &Sessions{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create issues a token for the identifier expiring a full session
// duration from now.
func (s *Sessions) Create(identifier string) (string, error) {
	if identifier == "" {
		return "", ErrNoSession
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   identifier,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}

	return signed, nil
}

// Validate returns the identifier carried by a live token. An empty,
// tampered, subject-less or expired token is simply not a session.
func (s *Sessions) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", false
	}

	if claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}

// Extend re-issues the token with a fresh full duration, implementing
// the sliding-window session: every qualifying user activity pushes
// the expiry forward.
func (s *Sessions) Extend(token string) (string, error) {
	identifier, ok := s.Validate(token)
	if !ok {
		return "", ErrNoSession
	}

	return s.Create(identifier)
}

// ExpiresAt reports the expiry of a token without validating freshness
// beyond the signature. Used for display only.
func (s *Sessions) ExpiresAt(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return time.Time{}, ErrNoSession
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoSession
	}

	return claims.ExpiresAt.Time, nil
}
