package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice

// Repository persists the fatura collection as a whole. The store is a
// single-writer key-value document, so mutations are read-modify-write
// over the full list.
type Repository interface {
	ListFaturas(ctx context.Context) ([]Fatura, error)
	ReplaceFaturas(ctx context.Context, faturas []Fatura) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the service clock, used by tests to pin the
// numbering year and the transition timestamps.
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

type CreateParams struct {
	Data      time.Time
	Cliente   string
	Valor     decimal.Decimal
	Descricao string
	Estado    Estado
	CreatedBy string
}

type UpdateParams struct {
	Data      *time.Time
	Cliente   *string
	Valor     *decimal.Decimal
	Descricao *string
}

// Now exposes the service clock, so callers stamping derived artifacts
// (export filenames) share the time source tests pin.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) List(ctx context.Context) ([]Fatura, error) {
	return s.repo.ListFaturas(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	for i := range faturas {
		if faturas[i].ID == id {
			f := faturas[i]
			return &f, nil
		}
	}

	return nil, ErrNotFound
}

// Create adds a new fatura. Numero stays unassigned regardless of the
// initial state; it is only issued when the fatura transitions to
// Emitida.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Fatura, error) {
	estado := params.Estado
	if estado == "" {
		estado = EstadoRascunho
	}

	f := Fatura{
		ID:        uuid.New(),
		Data:      params.Data,
		Cliente:   strings.TrimSpace(params.Cliente),
		Valor:     params.Valor,
		Descricao: strings.TrimSpace(params.Descricao),
		Estado:    estado,
		CreatedBy: params.CreatedBy,
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	faturas = append(faturas, f)
	if err := s.repo.ReplaceFaturas(ctx, faturas); err != nil {
		return nil, fmt.Errorf("saving faturas: %w", err)
	}

	return &f, nil
}

// Update edits the core fields of a fatura. State changes go through
// ChangeState so the transition side effects cannot be bypassed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(faturas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	f := faturas[idx]

	if params.Data != nil {
		f.Data = *params.Data
	}

	if params.Cliente != nil {
		f.Cliente = strings.TrimSpace(*params.Cliente)
	}

	if params.Valor != nil {
		f.Valor = *params.Valor
	}

	if params.Descricao != nil {
		f.Descricao = strings.TrimSpace(*params.Descricao)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	faturas[idx] = f
	if err := s.repo.ReplaceFaturas(ctx, faturas); err != nil {
		return nil, fmt.Errorf("saving faturas: %w", err)
	}

	return &f, nil
}

// ChangeState moves a fatura to the target state and applies the
// transition side effects: entering Emitida assigns the next number
// for the current year and stamps the issue date and actor; entering
// Paga stamps the payment date and actor; entering Anulada requires a
// non-blank justification. Any transition away from Anulada clears the
// justification, which is how a Paga fatura is reactivated back to
// Por pagar.
func (s *Service) ChangeState(ctx context.Context, id uuid.UUID, target Estado, justificacao, actor string) (*Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(faturas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	f := faturas[idx]
	now := s.now()

	switch target {
	case EstadoAnulada:
		justificacao = strings.TrimSpace(justificacao)
		if justificacao == "" {
			return nil, ErrJustificationRequired
		}

		f.Justificacao = justificacao

	case EstadoEmitida:
		if strings.TrimSpace(f.Numero) == "" {
			f.Numero = NextNumber(faturas, now.Year())
		}

		f.EmitidoPor = actor
		f.DataEmissao = &now
		f.Justificacao = ""

	case EstadoPaga:
		f.PagoPor = actor
		f.DataPagamento = &now
		f.Justificacao = ""

	default:
		f.Justificacao = ""
	}

	f.Estado = target

	faturas[idx] = f
	if err := s.repo.ReplaceFaturas(ctx, faturas); err != nil {
		return nil, fmt.Errorf("saving faturas: %w", err)
	}

	return &f, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(faturas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	removed := faturas[idx]

	faturas = append(faturas[:idx], faturas[idx+1:]...)
	if err := s.repo.ReplaceFaturas(ctx, faturas); err != nil {
		return nil, fmt.Errorf("saving faturas: %w", err)
	}

	return &removed, nil
}

// Duplicate copies a fatura into a new one dated today, already
// numbered and awaiting payment.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, actor string) (*Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(faturas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	src := faturas[idx]
	now := s.now()

	dup := Fatura{
		ID:        uuid.New(),
		Numero:    NextNumber(faturas, now.Year()),
		Data:      now,
		Cliente:   src.Cliente,
		Valor:     src.Valor,
		Descricao: src.Descricao,
		Estado:    EstadoPorPagar,
		CreatedBy: actor,
	}

	faturas = append(faturas, dup)
	if err := s.repo.ReplaceFaturas(ctx, faturas); err != nil {
		return nil, fmt.Errorf("saving faturas: %w", err)
	}

	return &dup, nil
}

// Receivables returns the faturas still awaiting payment.
func (s *Service) Receivables(ctx context.Context) ([]Fatura, error) {
	faturas, err := s.repo.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	var out []Fatura

	for _, f := range faturas {
		if ParseEstado(string(f.Estado)) == EstadoPorPagar {
			out = append(out, f)
		}
	}

	return out, nil
}

// ReferencesClient reports whether any fatura references the given
// client display name. Matching is by trimmed name, mirroring how
// faturas store their client.
func ReferencesClient(faturas []Fatura, clientName string) bool {
	name := strings.TrimSpace(clientName)
	if name == "" {
		return false
	}

	for _, f := range faturas {
		if strings.TrimSpace(f.Cliente) == name {
			return true
		}
	}

	return false
}

// Summary aggregates the dashboard totals.
type Summary struct {
	TotalVendas   decimal.Decimal
	TotalPorPagar decimal.Decimal
	TotalPago     decimal.Decimal
	NumFaturas    int
	NumPorPagar   int
}

func Summarize(faturas []Fatura) Summary {
	s := Summary{
		TotalVendas:   decimal.Zero,
		TotalPorPagar: decimal.Zero,
		TotalPago:     decimal.Zero,
		NumFaturas:    len(faturas),
	}

	for _, f := range faturas {
		s.TotalVendas = s.TotalVendas.Add(f.Valor)

		switch ParseEstado(string(f.Estado)) {
		case EstadoPorPagar:
			s.TotalPorPagar = s.TotalPorPagar.Add(f.Valor)
			s.NumPorPagar++
		case EstadoPaga:
			s.TotalPago = s.TotalPago.Add(f.Valor)
		}
	}

	return s
}

func indexOf(faturas []Fatura, id uuid.UUID) int {
	for i := range faturas {
		if faturas[i].ID == id {
			return i
		}
	}

	return -1
}
