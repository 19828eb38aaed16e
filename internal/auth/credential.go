package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes = 16
	hashBytes = 32

	// DefaultHashIterations is the PBKDF2 cost used outside tests.
	DefaultHashIterations = 120000

	minPasswordLength = 8
	maxPasswordLength = 128
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must have at least %d characters", minPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password cannot exceed %d characters", maxPasswordLength)
	ErrPasswordNoLetter = errors.New("password must contain at least one letter")
	ErrPasswordNoDigit  = errors.New("password must contain at least one digit")
)

// Credentials derives and verifies password hashes with PBKDF2-SHA256.
// Hashing is deliberately slow; callers on an interactive path run it
// off the event loop.
type Credentials struct {
	iterations int
}

func NewCredentials(iterations int) *Credentials {
	if iterations <= 0 {
		iterations = DefaultHashIterations
	}

	return &Credentials{iterations: iterations}
}

// GenerateSalt returns 16 random bytes, hex-encoded.
func (c *Credentials) GenerateSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random salt: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// HashPassword derives a 32-byte hex digest from the password and the
// hex-encoded salt. Same inputs always produce the same digest.
func (c *Credentials) HashPassword(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, c.iterations, hashBytes, sha256.New)

	return hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the digest and compares it in constant
// time against the stored one.
func (c *Credentials) VerifyPassword(password, saltHex, expectedHex string) bool {
	computed, err := c.HashPassword(password, saltHex)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHex)) == 1
}

// ValidatePasswordStrength enforces the minimum requirements: 8-128
// characters with at least one letter and one digit. The returned
// error text is shown inline on the form.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	hasLetter := false
	hasDigit := false

	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		return ErrPasswordNoLetter
	}

	if !hasDigit {
		return ErrPasswordNoDigit
	}

	return nil
}
