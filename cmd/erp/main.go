package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/dpereira/faturacao/cmd/erp/internal/view"
	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/auth"
	"github.com/dpereira/faturacao/internal/backup"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/config"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/role"
	"github.com/dpereira/faturacao/internal/storage"
	"github.com/dpereira/faturacao/internal/user"
)

type screen int

const (
	screenLogin screen = iota
	screenMenu
	screenFaturas
	screenClientes
	screenReceivables
	screenUsers
	screenLogs
	screenSettings
)

// touchEvery throttles session extension so not every keystroke hits
// the store.
const touchEvery = 30 * time.Second

type model struct {
	ctrl *app.Controller

	current   screen
	lastTouch time.Time

	summary    *invoice.Summary
	loginView  view.LoginModel
	faturas    view.FaturasModel
	clientes   view.ClientesModel
	receivable view.ReceivablesModel
	users      view.UsersModel
	logs       view.LogsModel
	settings   view.SettingsModel
}

func newModel(ctrl *app.Controller, loggedIn bool) model {
	m := model{
		ctrl:      ctrl,
		current:   screenLogin,
		loginView: view.NewLoginModel(ctrl),
	}

	if loggedIn {
		m.current = screenMenu
	}

	return m
}

func (m model) Init() tea.Cmd {
	if m.current == screenMenu {
		return m.loadSummaryCmd()
	}

	return m.loginView.Init()
}

type summaryMsg struct {
	summary *invoice.Summary
	err     error
}

func (m model) loadSummaryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.OpCtx()
		defer cancel()

		s, err := m.ctrl.Summary(ctx)

		return summaryMsg{summary: s, err: err}
	}
}

func (m model) touchCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.OpCtx()
		defer cancel()

		_ = m.ctrl.Touch(ctx)

		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case view.LoggedInMsg:
		m.current = screenMenu
		m.lastTouch = time.Now()

		return m, m.loadSummaryCmd()

	case view.LoggedOutMsg, view.SessionExpiredMsg:
		m.current = screenLogin
		m.summary = nil
		m.loginView = view.NewLoginModel(m.ctrl)

		return m, m.loginView.Init()

	case view.BackMsg:
		m.current = screenMenu
		return m, m.loadSummaryCmd()

	case summaryMsg:
		if msg.err == nil {
			m.summary = msg.summary
		}

		return m, nil

	case tea.KeyMsg:
		if m.current != screenLogin && time.Since(m.lastTouch) > touchEvery {
			m.lastTouch = time.Now()
			cmds = append(cmds, m.touchCmd())
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.current == screenMenu {
			return m.updateMenu(msg, cmds)
		}
	}

	var cmd tea.Cmd

	switch m.current {
	case screenLogin:
		var next tea.Model
		next, cmd = m.loginView.Update(msg)
		m.loginView = next.(view.LoginModel)
	case screenFaturas:
		var next tea.Model
		next, cmd = m.faturas.Update(msg)
		m.faturas = next.(view.FaturasModel)
	case screenClientes:
		var next tea.Model
		next, cmd = m.clientes.Update(msg)
		m.clientes = next.(view.ClientesModel)
	case screenReceivables:
		var next tea.Model
		next, cmd = m.receivable.Update(msg)
		m.receivable = next.(view.ReceivablesModel)
	case screenUsers:
		var next tea.Model
		next, cmd = m.users.Update(msg)
		m.users = next.(view.UsersModel)
	case screenLogs:
		var next tea.Model
		next, cmd = m.logs.Update(msg)
		m.logs = next.(view.LogsModel)
	case screenSettings:
		var next tea.Model
		next, cmd = m.settings.Update(msg)
		m.settings = next.(view.SettingsModel)
	}

	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) updateMenu(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	r := m.ctrl.CurrentRole()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.current = screenFaturas
		m.faturas = view.NewFaturasModel(m.ctrl)

		cmds = append(cmds, m.faturas.Init())
	case "2":
		m.current = screenClientes
		m.clientes = view.NewClientesModel(m.ctrl)

		cmds = append(cmds, m.clientes.Init())
	case "3":
		if role.CanViewReceivables(r) {
			m.current = screenReceivables
			m.receivable = view.NewReceivablesModel(m.ctrl)

			cmds = append(cmds, m.receivable.Init())
		}
	case "4":
		if role.CanManageUsers(r) {
			m.current = screenUsers
			m.users = view.NewUsersModel(m.ctrl)

			cmds = append(cmds, m.users.Init())
		}
	case "5":
		if role.CanViewAuditLog(r) {
			m.current = screenLogs
			m.logs = view.NewLogsModel(m.ctrl)

			cmds = append(cmds, m.logs.Init())
		}
	case "6":
		m.current = screenSettings
		m.settings = view.NewSettingsModel(m.ctrl)

		cmds = append(cmds, m.settings.Init())
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	switch m.current {
	case screenLogin:
		return m.loginView.View()
	case screenMenu:
		return m.menuView()
	case screenFaturas:
		return m.faturas.View()
	case screenClientes:
		return m.clientes.View()
	case screenReceivables:
		return m.receivable.View()
	case screenUsers:
		return m.users.View()
	case screenLogs:
		return m.logs.View()
	case screenSettings:
		return m.settings.View()
	}

	return ""
}

func (m model) menuView() string {
	u := m.ctrl.CurrentUser()
	if u == nil {
		return ""
	}

	r := u.Role

	header := fmt.Sprintf("Faturação — %s (%s)\n", u.Nome, r.Label())

	if s := m.summary; s != nil {
		header += fmt.Sprintf("\n%d faturas | Vendas: %s | Por pagar: %s | Recebido: %s\n",
			s.NumFaturas,
			s.TotalVendas.StringFixed(2),
			s.TotalPorPagar.StringFixed(2),
			s.TotalPago.StringFixed(2),
		)
	}

	menu := "\n1. Faturas\n2. Clientes\n"

	if role.CanViewReceivables(r) {
		menu += "3. Contas a receber\n"
	}

	if role.CanManageUsers(r) {
		menu += "4. Utilizadores\n"
	}

	if role.CanViewAuditLog(r) {
		menu += "5. Registo de atividade\n"
	}

	menu += "6. Definições\n\nq. Sair"

	return lipgloss.NewStyle().Padding(2).Render(header + menu)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	path, err := cfg.DataPath()
	if err != nil {
		slog.Error("failed to resolve data path", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(path)
	if err != nil {
		slog.Error("failed to open data store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	creds := auth.NewCredentials(cfg.Auth.HashIterations)
	sessions := auth.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionDuration)
	limiter := auth.NewRateLimiter(cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutDuration)

	userSvc := user.NewService(store, store, creds)
	clientSvc := client.NewService(store)
	invoiceSvc := invoice.NewService(store)
	auditSvc := audit.NewService(store)
	backupSvc := backup.NewService(store)

	ctx := context.Background()

	if err := userSvc.EnsureSeed(ctx); err != nil {
		slog.Error("failed to seed accounts", "error", err)
		os.Exit(1)
	}

	if err := userSvc.MigratePlaintextPasswords(ctx); err != nil {
		slog.Error("failed to migrate credentials", "error", err)
		os.Exit(1)
	}

	var program *tea.Program

	ctrl := app.NewController(app.Params{
		Store:             store,
		Users:             userSvc,
		Clients:           clientSvc,
		Invoices:          invoiceSvc,
		Audits:            auditSvc,
		Backups:           backupSvc,
		Sessions:          sessions,
		Limiter:           limiter,
		InactivityTimeout: cfg.Auth.InactivityTimeout,
		OnIdle: func() {
			if program != nil {
				program.Send(view.SessionExpiredMsg{})
			}
		},
	})
	defer ctrl.Close()

	restored, err := ctrl.RestoreSession(ctx)
	if err != nil {
		slog.Error("failed to restore session", "error", err)
		os.Exit(1)
	}

	program = tea.NewProgram(newModel(ctrl, restored != nil))
	if _, err := program.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
