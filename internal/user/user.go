package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/role"
)

var (
	ErrNotFound       = errors.New("utilizador not found")
	ErrEmailTaken     = errors.New("email already in use")
	ErrNameMissing    = errors.New("utilizador name is required")
	ErrEmailMissing   = errors.New("utilizador email is required")
	ErrInvalidRole    = errors.New("unknown role")
	ErrWrongPassword  = errors.New("current password is incorrect")
	ErrUserDeactivated = errors.New("utilizador is deactivated")
)

// User is an account. Ativo=false is a soft delete: the record stays
// but login is denied. Password is only ever set on legacy records and
// is removed by the one-time hash migration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	Email        string    `json:"email,omitempty"`
	Codigo       string    `json:"codigo,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Salt         string    `json:"salt,omitempty"`
	Password     string    `json:"password,omitempty"`
	Role         role.Role `json:"role"`
	Ativo        bool      `json:"ativo"`
}

// Identifier is what goes into the session: the employee code when
// present, the email otherwise.
func (u *User) Identifier() string {
	if c := strings.TrimSpace(u.Codigo); c != "" {
		return c
	}

	return strings.TrimSpace(u.Email)
}

// Matches reports whether the identifier (code or email,
// case-insensitive) designates this user.
func (u *User) Matches(identifier string) bool {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return false
	}

	if c := strings.TrimSpace(u.Codigo); c != "" && strings.EqualFold(c, id) {
		return true
	}

	return strings.EqualFold(strings.TrimSpace(u.Email), id)
}
