package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/nif"
)

// Repository persists the cliente collection as a whole, like the
// fatura repository.
type Repository interface {
	ListClientes(ctx context.Context) ([]Cliente, error)
	ReplaceClientes(ctx context.Context, clientes []Cliente) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Nome  string
	Email string
	NIF   string
}

func (s *Service) List(ctx context.Context) ([]Cliente, error) {
	return s.repo.ListClientes(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Cliente, error) {
	clientes, err := s.repo.ListClientes(ctx)
	if err != nil {
		return nil, err
	}

	for i := range clientes {
		if clientes[i].ID == id {
			c := clientes[i]
			return &c, nil
		}
	}

	return nil, ErrNotFound
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Cliente, error) {
	c := Cliente{
		ID:    uuid.New(),
		Nome:  strings.TrimSpace(params.Nome),
		Email: strings.TrimSpace(params.Email),
		NIF:   strings.TrimSpace(params.NIF),
	}

	if c.Nome == "" {
		return nil, ErrNameMissing
	}

	if err := nif.Validate(c.NIF); err != nil {
		return nil, err
	}

	clientes, err := s.repo.ListClientes(ctx)
	if err != nil {
		return nil, err
	}

	clientes = append(clientes, c)
	if err := s.repo.ReplaceClientes(ctx, clientes); err != nil {
		return nil, fmt.Errorf("saving clientes: %w", err)
	}

	return &c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params CreateParams) (*Cliente, error) {
	clientes, err := s.repo.ListClientes(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1

	for i := range clientes {
		if clientes[i].ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, ErrNotFound
	}

	c := clientes[idx]
	c.Nome = strings.TrimSpace(params.Nome)
	c.Email = strings.TrimSpace(params.Email)
	c.NIF = strings.TrimSpace(params.NIF)

	if c.Nome == "" {
		return nil, ErrNameMissing
	}

	if err := nif.Validate(c.NIF); err != nil {
		return nil, err
	}

	clientes[idx] = c
	if err := s.repo.ReplaceClientes(ctx, clientes); err != nil {
		return nil, fmt.Errorf("saving clientes: %w", err)
	}

	return &c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Cliente, error) {
	clientes, err := s.repo.ListClientes(ctx)
	if err != nil {
		return nil, err
	}

	for i := range clientes {
		if clientes[i].ID == id {
			removed := clientes[i]

			clientes = append(clientes[:i], clientes[i+1:]...)
			if err := s.repo.ReplaceClientes(ctx, clientes); err != nil {
				return nil, fmt.Errorf("saving clientes: %w", err)
			}

			return &removed, nil
		}
	}

	return nil, ErrNotFound
}
