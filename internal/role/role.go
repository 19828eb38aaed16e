// Package role is the authorization matrix: pure lookups from a role
// (and, where relevant, the current fatura state) to a yes/no
// decision. Permission changes live here and nowhere else; the views
// and the storage layer never encode grants of their own.
package role

import (
	"strings"

	"github.com/dpereira/faturacao/internal/invoice"
)

type Role string

const (
	Admin      Role = "admin"
	Comercial  Role = "comercial"
	Financeiro Role = "financeiro"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{Admin, Comercial, Financeiro}
}

// Parse normalizes a stored role string. Unknown roles map to an empty
// Role, which holds no grants at all.
func Parse(s string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case Admin:
		return Admin
	case Comercial:
		return Comercial
	case Financeiro:
		return Financeiro
	}

	return Role("")
}

func (r Role) Valid() bool {
	return r == Admin || r == Comercial || r == Financeiro
}

// Label is the display name shown in the UI.
func (r Role) Label() string {
	switch r {
	case Admin:
		return "Administrador"
	case Comercial:
		return "Comercial"
	case Financeiro:
		return "Financeiro"
	}

	return string(r)
}

func IsPrivileged(r Role) bool {
	return r == Admin
}

// CanCreateInvoice: admin and financeiro create drafts; comercial does
// not create.
func CanCreateInvoice(r Role) bool {
	return r == Admin || r == Financeiro
}

// CanEditInvoice governs edits to the core fields (client, value,
// date). Nobody edits a paid or voided fatura; admin edits anything
// else; comercial and financeiro only drafts, so values cannot change
// after issuing.
func CanEditInvoice(r Role, estado invoice.Estado) bool {
	e := invoice.ParseEstado(string(estado))
	if e == invoice.EstadoPaga || e == invoice.EstadoAnulada {
		return false
	}

	if r == Admin {
		return true
	}

	if r == Comercial || r == Financeiro {
		return e == invoice.EstadoRascunho
	}

	return false
}

// CanDeleteInvoice: only drafts, and never for comercial.
func CanDeleteInvoice(r Role, estado invoice.Estado) bool {
	if invoice.ParseEstado(string(estado)) != invoice.EstadoRascunho {
		return false
	}

	return r == Admin || r == Financeiro
}

// CanChangeInvoiceState: a paid or voided fatura is a dead end. Admin
// may transition anything else; comercial drives the regular flow
// (issues and marks paid); financeiro never changes states.
func CanChangeInvoiceState(r Role, estado invoice.Estado) bool {
	e := invoice.ParseEstado(string(estado))
	if e == invoice.EstadoPaga || e == invoice.EstadoAnulada {
		return false
	}

	if r == Admin {
		return true
	}

	if r == Comercial {
		return e == invoice.EstadoRascunho || e == invoice.EstadoEmitida || e == invoice.EstadoPorPagar
	}

	return false
}

// AllowedTargetStates lists the states a role may move a fatura into.
func AllowedTargetStates(r Role) []invoice.Estado {
	switch r {
	case Admin:
		return invoice.Estados()
	case Comercial:
		return []invoice.Estado{invoice.EstadoEmitida, invoice.EstadoPorPagar, invoice.EstadoPaga, invoice.EstadoAnulada}
	}

	return nil
}

func CanMarkInvoicePaid(r Role) bool {
	return r == Admin || r == Comercial
}

func CanMarkInvoiceVoided(r Role) bool {
	return r == Admin || r == Comercial
}

func CanCreateClient(r Role) bool {
	return r == Admin || r == Comercial
}

func CanEditClient(r Role) bool {
	return r == Admin || r == Comercial
}

func CanDeleteClient(r Role) bool {
	return r == Admin || r == Comercial
}

// CanDeleteThisClient adds the referential guard on top of the base
// grant: a comercial may not remove a client that still has faturas
// referencing its display name.
func CanDeleteThisClient(r Role, clientName string, faturas []invoice.Fatura) bool {
	if !CanDeleteClient(r) {
		return false
	}

	if r == Comercial && invoice.ReferencesClient(faturas, clientName) {
		return false
	}

	return true
}

func CanViewReceivables(r Role) bool {
	return r == Admin || r == Comercial
}

func CanViewAuditLog(r Role) bool {
	return r == Admin
}

func CanViewSettings(r Role) bool {
	return r == Admin || r == Comercial || r == Financeiro
}

func CanManageUsers(r Role) bool {
	return r == Admin
}

// CanManageBackups covers both exporting and restoring the full data
// archive.
func CanManageBackups(r Role) bool {
	return r == Admin
}
