package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/role"
)

func TestParse(t *testing.T) {
	assert.Equal(t, role.Admin, role.Parse(" ADMIN "))
	assert.Equal(t, role.Comercial, role.Parse("comercial"))
	assert.Equal(t, role.Financeiro, role.Parse("Financeiro"))
	assert.Equal(t, role.Role(""), role.Parse("gestor"))
	assert.False(t, role.Parse("gestor").Valid())
}

func TestCanCreateInvoice(t *testing.T) {
	assert.True(t, role.CanCreateInvoice(role.Admin))
	assert.False(t, role.CanCreateInvoice(role.Comercial))
	assert.True(t, role.CanCreateInvoice(role.Financeiro))
	assert.False(t, role.CanCreateInvoice(role.Role("")))
}

func TestCanEditInvoice(t *testing.T) {
	type testCase struct {
		role   role.Role
		estado invoice.Estado
		want   bool
	}

	tests := []testCase{
		{role.Admin, invoice.EstadoRascunho, true},
		{role.Admin, invoice.EstadoEmitida, true},
		{role.Admin, invoice.EstadoPorPagar, true},
		{role.Admin, invoice.EstadoPaga, false},
		{role.Admin, invoice.EstadoAnulada, false},

		{role.Comercial, invoice.EstadoRascunho, true},
		{role.Comercial, invoice.EstadoEmitida, false},
		{role.Comercial, invoice.EstadoPorPagar, false},
		{role.Comercial, invoice.EstadoPaga, false},
		{role.Comercial, invoice.EstadoAnulada, false},

		{role.Financeiro, invoice.EstadoRascunho, true},
		{role.Financeiro, invoice.EstadoEmitida, false},
		{role.Financeiro, invoice.EstadoPorPagar, false},
		{role.Financeiro, invoice.EstadoPaga, false},
		{role.Financeiro, invoice.EstadoAnulada, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.estado), func(t *testing.T) {
			assert.Equal(t, tt.want, role.CanEditInvoice(tt.role, tt.estado))
		})
	}
}

func TestCanDeleteInvoice(t *testing.T) {
	type testCase struct {
		role   role.Role
		estado invoice.Estado
		want   bool
	}

	tests := []testCase{
		{role.Admin, invoice.EstadoRascunho, true},
		{role.Admin, invoice.EstadoEmitida, false},
		{role.Admin, invoice.EstadoPorPagar, false},
		{role.Admin, invoice.EstadoPaga, false},
		{role.Admin, invoice.EstadoAnulada, false},

		{role.Comercial, invoice.EstadoRascunho, false},
		{role.Comercial, invoice.EstadoEmitida, false},
		{role.Comercial, invoice.EstadoPorPagar, false},
		{role.Comercial, invoice.EstadoPaga, false},
		{role.Comercial, invoice.EstadoAnulada, false},

		{role.Financeiro, invoice.EstadoRascunho, true},
		{role.Financeiro, invoice.EstadoEmitida, false},
		{role.Financeiro, invoice.EstadoPorPagar, false},
		{role.Financeiro, invoice.EstadoPaga, false},
		{role.Financeiro, invoice.EstadoAnulada, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.estado), func(t *testing.T) {
			assert.Equal(t, tt.want, role.CanDeleteInvoice(tt.role, tt.estado))
		})
	}
}

func TestCanChangeInvoiceState(t *testing.T) {
	type testCase struct {
		role   role.Role
		estado invoice.Estado
		want   bool
	}

	tests := []testCase{
		{role.Admin, invoice.EstadoRascunho, true},
		{role.Admin, invoice.EstadoEmitida, true},
		{role.Admin, invoice.EstadoPorPagar, true},
		{role.Admin, invoice.EstadoPaga, false},
		{role.Admin, invoice.EstadoAnulada, false},

		{role.Comercial, invoice.EstadoRascunho, true},
		{role.Comercial, invoice.EstadoEmitida, true},
		{role.Comercial, invoice.EstadoPorPagar, true},
		{role.Comercial, invoice.EstadoPaga, false},
		{role.Comercial, invoice.EstadoAnulada, false},

		{role.Financeiro, invoice.EstadoRascunho, false},
		{role.Financeiro, invoice.EstadoEmitida, false},
		{role.Financeiro, invoice.EstadoPorPagar, false},
		{role.Financeiro, invoice.EstadoPaga, false},
		{role.Financeiro, invoice.EstadoAnulada, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.estado), func(t *testing.T) {
			assert.Equal(t, tt.want, role.CanChangeInvoiceState(tt.role, tt.estado))
		})
	}
}

func TestAllowedTargetStates(t *testing.T) {
	assert.ElementsMatch(t, invoice.Estados(), role.AllowedTargetStates(role.Admin))
	assert.ElementsMatch(t,
		[]invoice.Estado{invoice.EstadoEmitida, invoice.EstadoPorPagar, invoice.EstadoPaga, invoice.EstadoAnulada},
		role.AllowedTargetStates(role.Comercial))
	assert.Empty(t, role.AllowedTargetStates(role.Financeiro))
}

func TestClientGrants(t *testing.T) {
	for _, r := range []role.Role{role.Admin, role.Comercial} {
		assert.True(t, role.CanCreateClient(r), r)
		assert.True(t, role.CanEditClient(r), r)
		assert.True(t, role.CanDeleteClient(r), r)
	}

	assert.False(t, role.CanCreateClient(role.Financeiro))
	assert.False(t, role.CanEditClient(role.Financeiro))
	assert.False(t, role.CanDeleteClient(role.Financeiro))
}

func TestCanDeleteThisClient(t *testing.T) {
	faturas := []invoice.Fatura{{Cliente: "Clínica Lusa"}}

	// The referential guard binds only comercial.
	assert.True(t, role.CanDeleteThisClient(role.Admin, "Clínica Lusa", faturas))
	assert.False(t, role.CanDeleteThisClient(role.Comercial, "Clínica Lusa", faturas))
	assert.True(t, role.CanDeleteThisClient(role.Comercial, "Sem Faturas", faturas))
	assert.False(t, role.CanDeleteThisClient(role.Financeiro, "Sem Faturas", faturas))
}

func TestViewGrants(t *testing.T) {
	assert.True(t, role.CanViewReceivables(role.Admin))
	assert.True(t, role.CanViewReceivables(role.Comercial))
	assert.False(t, role.CanViewReceivables(role.Financeiro))

	assert.True(t, role.CanViewAuditLog(role.Admin))
	assert.False(t, role.CanViewAuditLog(role.Comercial))
	assert.False(t, role.CanViewAuditLog(role.Financeiro))

	for _, r := range role.Roles() {
		assert.True(t, role.CanViewSettings(r), r)
	}

	assert.True(t, role.CanManageUsers(role.Admin))
	assert.False(t, role.CanManageUsers(role.Comercial))

	assert.True(t, role.CanManageBackups(role.Admin))
	assert.False(t, role.CanManageBackups(role.Financeiro))
}
