package app_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/auth"
	"github.com/dpereira/faturacao/internal/backup"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/storage"
	"github.com/dpereira/faturacao/internal/user"
)

type testEnv struct {
	ctrl  *app.Controller
	store *storage.Store
}

func newTestEnv(t *testing.T, opts ...func(*app.Params)) *testEnv {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "erp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return newEnvWithStore(t, store, opts...)
}

func newEnvWithStore(t *testing.T, store *storage.Store, opts ...func(*app.Params)) *testEnv {
	t.Helper()

	creds := auth.NewCredentials(1000)
	userSvc := user.NewService(store, store, creds)

	ctx := context.Background()
	require.NoError(t, userSvc.EnsureSeed(ctx))
	require.NoError(t, userSvc.MigratePlaintextPasswords(ctx))

	params := app.Params{
		Store:    store,
		Users:    userSvc,
		Clients:  client.NewService(store),
		Invoices: invoice.NewService(store),
		Audits:   audit.NewService(store),
		Backups:  backup.NewService(store),
		Sessions: auth.NewSessions("test-secret", 8*time.Hour),
		Limiter:  auth.NewRateLimiter(5, 15*time.Minute),
	}

	for _, opt := range opts {
		opt(&params)
	}

	ctrl := app.NewController(params)
	t.Cleanup(ctrl.Close)

	return &testEnv{ctrl: ctrl, store: store}
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()

	_, err := e.ctrl.Login(context.Background(), email, "Admin123")
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.ctrl.Login(ctx, "admin@teste.pt", "Admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin@teste.pt", u.Email)
	require.NotNil(t, env.ctrl.CurrentUser())

	// Employee code works as identifier too.
	require.NoError(t, env.ctrl.Logout(ctx))

	u, err = env.ctrl.Login(ctx, "F002", "Admin123")
	require.NoError(t, err)
	assert.Equal(t, "comercial@teste.pt", u.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ctrl.Login(context.Background(), "admin@teste.pt", "errada")
	assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	assert.Nil(t, env.ctrl.CurrentUser())
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ctrl.Login(context.Background(), "ninguem@teste.pt", "Admin123")
	assert.ErrorIs(t, err, app.ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := env.ctrl.Login(ctx, "admin@teste.pt", "errada")
		assert.ErrorIs(t, err, app.ErrInvalidCredentials, "attempt %d", i+1)
	}

	var lockout *app.LockoutError

	_, err := env.ctrl.Login(ctx, "admin@teste.pt", "errada")
	require.ErrorAs(t, err, &lockout)
	assert.True(t, lockout.Until.After(time.Now()))

	// Even the correct password is rejected while locked.
	_, err = env.ctrl.Login(ctx, "admin@teste.pt", "Admin123")
	assert.ErrorAs(t, err, &lockout)
}

func TestLoginSuccessResetsLimiter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = env.ctrl.Login(ctx, "admin@teste.pt", "errada")
	}

	env.login(t, "admin@teste.pt")
	require.NoError(t, env.ctrl.Logout(ctx))

	// The counter restarted: four more failures do not lock.
	for i := 0; i < 4; i++ {
		_, err := env.ctrl.Login(ctx, "admin@teste.pt", "errada")
		assert.ErrorIs(t, err, app.ErrInvalidCredentials)
	}
}

func TestLoginDeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	users, err := env.ctrl.ListUsers(ctx)
	require.NoError(t, err)

	for _, u := range users {
		if u.Email == "comercial@teste.pt" {
			_, err = env.ctrl.SetUserActive(ctx, u.ID, false)
			require.NoError(t, err)
		}
	}

	require.NoError(t, env.ctrl.Logout(ctx))

	_, err = env.ctrl.Login(ctx, "comercial@teste.pt", "Admin123")
	assert.ErrorIs(t, err, user.ErrUserDeactivated)
}

func TestRestoreSessionAcrossRuns(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "erp.db"))
	require.NoError(t, err)
	defer store.Close()

	env := newEnvWithStore(t, store)
	env.login(t, "admin@teste.pt")
	env.ctrl.Close()

	// A fresh controller over the same store picks the session up.
	second := newEnvWithStore(t, store)

	restored, err := second.ctrl.RestoreSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "admin@teste.pt", restored.Email)
}

func TestRestoreSessionAfterLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")
	require.NoError(t, env.ctrl.Logout(ctx))

	restored, err := env.ctrl.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestInactivityLogsOut(t *testing.T) {
	var (
		mu    sync.Mutex
		fired bool
	)

	env := newTestEnv(t, func(p *app.Params) {
		p.InactivityTimeout = 20 * time.Millisecond
		p.OnIdle = func() {
			mu.Lock()
			fired = true
			mu.Unlock()
		}
	})

	env.login(t, "admin@teste.pt")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}, time.Second, 5*time.Millisecond)

	assert.Nil(t, env.ctrl.CurrentUser())
}

func TestComercialCannotCreateFatura(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "comercial@teste.pt")

	_, err := env.ctrl.CreateFatura(ctx, invoice.CreateParams{
		Data:    time.Now(),
		Cliente: "Clínica Lusa",
		Valor:   decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	// The rejected call is a strict no-op: nothing stored, nothing
	// audited.
	faturas, err := env.ctrl.ListFaturas(ctx)
	require.NoError(t, err)
	assert.Empty(t, faturas)

	require.NoError(t, env.ctrl.Logout(ctx))
	env.login(t, "admin@teste.pt")

	entries, err := env.ctrl.AuditLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInvoiceLifecycleWithAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	f, err := env.ctrl.CreateFatura(ctx, invoice.CreateParams{
		Data:    time.Now(),
		Cliente: "Clínica Lusa",
		Valor:   decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.EstadoRascunho, f.Estado)
	assert.Empty(t, f.Numero)
	assert.Equal(t, "F001", f.CreatedBy)

	issued, err := env.ctrl.ChangeFaturaState(ctx, f.ID, invoice.EstadoEmitida, "")
	require.NoError(t, err)
	assert.Equal(t, "FT-"+time.Now().Format("2006")+"-001", issued.Numero)
	assert.Equal(t, "F001", issued.EmitidoPor)
	require.NotNil(t, issued.DataEmissao)

	paid, err := env.ctrl.ChangeFaturaState(ctx, f.ID, invoice.EstadoPaga, "")
	require.NoError(t, err)
	assert.Equal(t, "F001", paid.PagoPor)
	require.NotNil(t, paid.DataPagamento)

	entries, err := env.ctrl.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, audit.ActionEdit, entries[0].Action)
	assert.Contains(t, entries[0].Detalhe, "Paga")
	assert.Equal(t, audit.ActionCreate, entries[2].Action)
	assert.Equal(t, audit.EntityFatura, entries[2].Entity)
}

func TestVoidRequiresJustification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	f, err := env.ctrl.CreateFatura(ctx, invoice.CreateParams{
		Data:    time.Now(),
		Cliente: "Clínica Lusa",
		Valor:   decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	_, err = env.ctrl.ChangeFaturaState(ctx, f.ID, invoice.EstadoAnulada, "   ")
	assert.ErrorIs(t, err, invoice.ErrJustificationRequired)

	// Still a draft, and the failed transition left no audit entry.
	got, err := env.ctrl.GetFatura(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.EstadoRascunho, got.Estado)

	entries, err := env.ctrl.AuditLog(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // only the create

	voided, err := env.ctrl.ChangeFaturaState(ctx, f.ID, invoice.EstadoAnulada, "pedido do cliente")
	require.NoError(t, err)
	assert.Equal(t, "pedido do cliente", voided.Justificacao)
}

func TestFinanceiroCannotChangeState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "financeiro@teste.pt")

	f, err := env.ctrl.CreateFatura(ctx, invoice.CreateParams{
		Data:    time.Now(),
		Cliente: "Clínica Lusa",
		Valor:   decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	_, err = env.ctrl.ChangeFaturaState(ctx, f.ID, invoice.EstadoEmitida, "")
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	_, err = env.ctrl.Receivables(ctx)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)
}

func TestDeleteClienteGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	cl, err := env.ctrl.CreateCliente(ctx, client.CreateParams{Nome: "Clínica Lusa", NIF: "123456789"})
	require.NoError(t, err)

	_, err = env.ctrl.CreateFatura(ctx, invoice.CreateParams{
		Data:    time.Now(),
		Cliente: "Clínica Lusa",
		Valor:   decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	require.NoError(t, env.ctrl.Logout(ctx))
	env.login(t, "comercial@teste.pt")

	// The comercial cannot remove a client with faturas on its name.
	err = env.ctrl.DeleteCliente(ctx, cl.ID)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	require.NoError(t, env.ctrl.Logout(ctx))
	env.login(t, "admin@teste.pt")

	require.NoError(t, env.ctrl.DeleteCliente(ctx, cl.ID))
}

func TestFinanceiroCannotManageClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "financeiro@teste.pt")

	_, err := env.ctrl.CreateCliente(ctx, client.CreateParams{Nome: "Clínica Lusa"})
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	_, err = env.ctrl.ImportClientes(ctx, strings.NewReader("Nome;Email;NIF\nA;;\n"))
	assert.ErrorIs(t, err, app.ErrPermissionDenied)
}

func TestImportClientes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "comercial@teste.pt")

	input := "Nome;Email;NIF\nClínica Lusa;geral@lusa.pt;123456789\nNIF Errado;;123456780\n"

	result, err := env.ctrl.ImportClientes(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	clientes, err := env.ctrl.ListClientes(ctx)
	require.NoError(t, err)
	require.Len(t, clientes, 1)
	assert.Equal(t, "Clínica Lusa", clientes[0].Nome)
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "comercial@teste.pt")

	_, err := env.ctrl.ListUsers(ctx)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	_, err = env.ctrl.AuditLog(ctx)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)

	_, _, err = env.ctrl.ExportBackup(ctx)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	self := env.ctrl.CurrentUser()
	require.NotNil(t, self)

	_, err := env.ctrl.SetUserActive(ctx, self.ID, false)
	assert.ErrorIs(t, err, app.ErrPermissionDenied)
}

func TestChangeOwnPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "financeiro@teste.pt")

	require.NoError(t, env.ctrl.ChangeOwnPassword(ctx, "Admin123", "NovoSegredo1"))
	require.NoError(t, env.ctrl.Logout(ctx))

	_, err := env.ctrl.Login(ctx, "financeiro@teste.pt", "Admin123")
	assert.ErrorIs(t, err, app.ErrInvalidCredentials)

	_, err = env.ctrl.Login(ctx, "financeiro@teste.pt", "NovoSegredo1")
	assert.NoError(t, err)
}

func TestBackupRoundTripThroughController(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	_, err := env.ctrl.CreateCliente(ctx, client.CreateParams{Nome: "Clínica Lusa"})
	require.NoError(t, err)

	raw, name, err := env.ctrl.ExportBackup(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "backup_erp_"))

	// Wipe the client, then restore.
	clientes, err := env.ctrl.ListClientes(ctx)
	require.NoError(t, err)
	require.NoError(t, env.ctrl.DeleteCliente(ctx, clientes[0].ID))

	require.NoError(t, env.ctrl.RestoreBackup(ctx, raw))

	clientes, err = env.ctrl.ListClientes(ctx)
	require.NoError(t, err)
	require.Len(t, clientes, 1)

	// The admin is still logged in after restoring.
	assert.NotNil(t, env.ctrl.CurrentUser())
}

func TestRestoreBackupRejectsMalformed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "admin@teste.pt")

	err := env.ctrl.RestoreBackup(ctx, []byte(`{"version":"9.9"}`))
	assert.ErrorIs(t, err, backup.ErrInvalidArchive)

	users, err := env.ctrl.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestNotLoggedIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ctrl.ListFaturas(ctx)
	assert.ErrorIs(t, err, app.ErrNotLoggedIn)

	err = env.ctrl.Touch(ctx)
	assert.ErrorIs(t, err, app.ErrNotLoggedIn)
}
