package invoice

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("fatura not found")

	// ErrJustificationRequired rejects a transition to Anulada with a
	// blank justification. The invoice is left untouched.
	ErrJustificationRequired = errors.New("justification required to void a fatura")

	ErrInvalidValue  = errors.New("fatura value must be greater than zero")
	ErrClientMissing = errors.New("fatura client is required")
)

// Estado is the lifecycle state of a fatura.
type Estado string

const (
	EstadoRascunho Estado = "Rascunho"
	EstadoEmitida  Estado = "Emitida"
	EstadoPorPagar Estado = "Por pagar"
	EstadoPaga     Estado = "Paga"
	EstadoAnulada  Estado = "Anulada"
)

// Estados lists every state in lifecycle order.
func Estados() []Estado {
	return []Estado{EstadoRascunho, EstadoEmitida, EstadoPorPagar, EstadoPaga, EstadoAnulada}
}

// ParseEstado normalizes stored state strings. Legacy records carry
// stray whitespace; anything unrecognized maps to an empty Estado,
// which never grants a permission.
func ParseEstado(s string) Estado {
	switch Estado(strings.TrimSpace(s)) {
	case EstadoRascunho:
		return EstadoRascunho
	case EstadoEmitida:
		return EstadoEmitida
	case EstadoPorPagar:
		return EstadoPorPagar
	case EstadoPaga:
		return EstadoPaga
	case EstadoAnulada:
		return EstadoAnulada
	}

	return Estado("")
}

// Terminal reports whether no further transitions leave this state
// through the regular flow. Paga still allows the explicit
// reactivation back to Por pagar.
func (e Estado) Terminal() bool {
	return e == EstadoPaga || e == EstadoAnulada
}

// Fatura is an invoice. Numero stays empty until the fatura enters
// Emitida, when the next sequential number for the year is assigned.
// The client is referenced by display name, not id; renaming a client
// orphans its faturas and that behavior is kept on purpose.
type Fatura struct {
	ID           uuid.UUID       `json:"id"`
	Numero       string          `json:"numero,omitempty"`
	Data         time.Time       `json:"data"`
	Cliente      string          `json:"cliente"`
	Valor        decimal.Decimal `json:"valor"`
	Descricao    string          `json:"descricao,omitempty"`
	Estado       Estado          `json:"estado"`
	Justificacao string          `json:"justificacao,omitempty"`

	CreatedBy     string     `json:"createdBy,omitempty"`
	EmitidoPor    string     `json:"emitidoPor,omitempty"`
	DataEmissao   *time.Time `json:"dataEmissao,omitempty"`
	PagoPor       string     `json:"pagoPor,omitempty"`
	DataPagamento *time.Time `json:"dataPagamento,omitempty"`
}

// Validate checks the invariants every mutation must preserve.
func (f *Fatura) Validate() error {
	if strings.TrimSpace(f.Cliente) == "" {
		return ErrClientMissing
	}

	if !f.Valor.GreaterThan(decimal.Zero) {
		return ErrInvalidValue
	}

	return nil
}
