package client

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("cliente not found")
	ErrNameMissing = errors.New("cliente name is required")

	// ErrHasInvoices blocks removal while faturas still reference the
	// cliente by name.
	ErrHasInvoices = errors.New("cliente has faturas and cannot be removed")
)

// Cliente is a customer. Faturas reference it by display name, so a
// rename silently detaches its invoice history; see DESIGN.md.
type Cliente struct {
	ID    uuid.UUID `json:"id"`
	Nome  string    `json:"nome"`
	Email string    `json:"email,omitempty"`
	NIF   string    `json:"nif,omitempty"`
}
