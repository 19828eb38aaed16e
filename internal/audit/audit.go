package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/role"
)

// MaxEntries caps the stored log; appending beyond it drops the oldest
// entries.
const MaxEntries = 500

// Action is what was done to the entity.
type Action string

const (
	ActionCreate Action = "criar"
	ActionEdit   Action = "editar"
	ActionRemove Action = "remover"
)

// Entity is the kind of record an entry refers to.
type Entity string

const (
	EntityFatura  Entity = "fatura"
	EntityCliente Entity = "cliente"
)

// Entry is one audit record. Detalhe is free text, e.g. the state
// transition an edit performed.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	UserIdentifier string    `json:"user"`
	Role           role.Role `json:"role"`
	Action         Action    `json:"acao"`
	Entity         Entity    `json:"entidade"`
	EntityID       string    `json:"entidadeId,omitempty"`
	Detalhe        string    `json:"detalhe,omitempty"`
}

// Repository persists the log newest-first.
type Repository interface {
	ListAuditEntries(ctx context.Context) ([]Entry, error)
	ReplaceAuditEntries(ctx context.Context, entries []Entry) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns the log, newest entry first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.ListAuditEntries(ctx)
}

// Record prepends a new entry and trims the log to MaxEntries. Logging
// failures are reported but callers treat them as non-fatal: a mutation
// that already happened is not rolled back over its audit record.
func (s *Service) Record(ctx context.Context, userIdentifier string, r role.Role, action Action, entity Entity, entityID, detalhe string) error {
	entries, err := s.repo.ListAuditEntries(ctx)
	if err != nil {
		return err
	}

	entry := Entry{
		ID:             uuid.New(),
		Timestamp:      s.now(),
		UserIdentifier: userIdentifier,
		Role:           r,
		Action:         action,
		Entity:         entity,
		EntityID:       entityID,
		Detalhe:        detalhe,
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := s.repo.ReplaceAuditEntries(ctx, entries); err != nil {
		return fmt.Errorf("saving audit log: %w", err)
	}

	return nil
}
