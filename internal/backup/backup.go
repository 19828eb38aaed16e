package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/user"
)

// Version identifies the archive layout.
const Version = "1.0"

var (
	ErrInvalidArchive = errors.New("invalid backup archive")
	ErrWrongVersion   = errors.New("unsupported backup version")
)

// Archive is the full-system snapshot: every collection in one JSON
// document. Restoring replaces everything or nothing.
type Archive struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Version    string           `json:"version"`
	Invoices   []invoice.Fatura `json:"invoices"`
	Clients    []client.Cliente `json:"clients"`
	Users      []user.User      `json:"users"`
}

// Repositories is the slice of the store the backup needs. The concrete
// store satisfies it.
type Repositories interface {
	ListFaturas(ctx context.Context) ([]invoice.Fatura, error)
	ReplaceFaturas(ctx context.Context, faturas []invoice.Fatura) error
	ListClientes(ctx context.Context) ([]client.Cliente, error)
	ReplaceClientes(ctx context.Context, clientes []client.Cliente) error
	ListUsers(ctx context.Context) ([]user.User, error)
	ReplaceUsers(ctx context.Context, users []user.User) error
}

type Service struct {
	repos Repositories
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{repos: repos, now: time.Now}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Export serializes every collection into one archive.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	faturas, err := s.repos.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	clientes, err := s.repos.ListClientes(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.repos.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	archive := Archive{
		ExportedAt: s.now(),
		Version:    Version,
		Invoices:   faturas,
		Clients:    clientes,
		Users:      users,
	}

	raw, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	return raw, nil
}

// Filename is the suggested name for an exported archive.
func (s *Service) Filename() string {
	return fmt.Sprintf("backup_erp_%s.json", s.now().Format("2006-01-02"))
}

// Restore validates the archive fully before touching the store, then
// replaces every collection. An archive that fails validation leaves
// the store untouched.
func (s *Service) Restore(ctx context.Context, raw []byte) error {
	var archive Archive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	if archive.Version == "" || archive.Invoices == nil || archive.Clients == nil || archive.Users == nil {
		return ErrInvalidArchive
	}

	if archive.Version != Version {
		return fmt.Errorf("%w: %s", ErrWrongVersion, archive.Version)
	}

	if err := s.repos.ReplaceFaturas(ctx, archive.Invoices); err != nil {
		return fmt.Errorf("restoring faturas: %w", err)
	}

	if err := s.repos.ReplaceClientes(ctx, archive.Clients); err != nil {
		return fmt.Errorf("restoring clientes: %w", err)
	}

	if err := s.repos.ReplaceUsers(ctx, archive.Users); err != nil {
		return fmt.Errorf("restoring utilizadores: %w", err)
	}

	return nil
}
