package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/user"
)

type LoginModel struct {
	CommonModel
	ctrl *app.Controller

	form       *huh.Form
	identifier string
	password   string

	submitting bool
	errMsg     string
}

func NewLoginModel(ctrl *app.Controller) LoginModel {
	m := LoginModel{ctrl: ctrl}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("identifier").
				Title("Código ou email").
				Value(&m.identifier).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("obrigatório")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Palavra-passe").
				EchoMode(huh.EchoModePassword).
				Value(&m.password),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Title() string { return "Iniciar sessão" }

func (m LoginModel) ShortHelp() string { return "Enter: entrar | Ctrl+C: sair" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

type loginResultMsg struct {
	err error
}

func (m LoginModel) loginCmd(identifier, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		_, err := m.ctrl.Login(ctx, identifier, password)

		return loginResultMsg{err: err}
	}
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false

		if msg.err == nil {
			m.errMsg = ""
			return m, func() tea.Msg { return LoggedInMsg{} }
		}

		m.errMsg = loginErrorText(msg.err)
		m.password = ""
		m.form = m.buildForm()

		return m, m.form.Init()
	}

	if m.submitting {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.submitting = true
	identifier := m.form.GetString("identifier")
	password := m.form.GetString("password")

	return m, m.loginCmd(identifier, password)
}

func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Faturação — Iniciar sessão"))
	b.WriteString("\n")

	if m.submitting {
		b.WriteString("A verificar credenciais...\n")
	} else {
		b.WriteString(m.form.View())
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errStyle.Render(m.errMsg))
	}

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

func loginErrorText(err error) string {
	var lockout *app.LockoutError
	if errors.As(err, &lockout) {
		return lockout.Error()
	}

	if errors.Is(err, user.ErrUserDeactivated) {
		return "conta desativada"
	}

	if errors.Is(err, app.ErrInvalidCredentials) {
		return "credenciais inválidas"
	}

	return err.Error()
}
