package view

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/format"
	"github.com/dpereira/faturacao/internal/role"
)

type settingsState int

const (
	settingsStateMenu settingsState = iota
	settingsStatePassword
	settingsStateRestore
)

type SettingsModel struct {
	CommonModel
	ctrl *app.Controller

	state      settingsState
	form       *huh.Form
	filePicker filepicker.Model

	status string

	formCurrent string
	formNext    string
	formConfirm string
}

func NewSettingsModel(ctrl *app.Controller) SettingsModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".json"}
	fp.SetHeight(15)

	return SettingsModel{ctrl: ctrl, filePicker: fp}
}

func (m SettingsModel) Title() string { return "Definições" }

func (m SettingsModel) ShortHelp() string {
	switch m.state {
	case settingsStatePassword:
		return "Navegar no formulário | Esc: cancelar"
	case settingsStateRestore:
		return "Enter: escolher ficheiro | Esc: cancelar"
	}

	help := "Esc: voltar | p: alterar palavra-passe | s: terminar sessão"

	if role.CanManageBackups(m.ctrl.CurrentRole()) {
		help += " | b: exportar backup | i: repor backup"
	}

	return help
}

func (m SettingsModel) Init() tea.Cmd {
	return nil
}

type settingsOpMsg struct {
	status string
	err    error
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsOpMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
		} else {
			m.status = okStyle.Render(msg.status)
		}

		m.state = settingsStateMenu
		m.form = nil

		return m, nil
	}

	switch m.state {
	case settingsStateMenu:
		return m.updateMenu(msg)
	case settingsStatePassword:
		return m.updatePassword(msg)
	case settingsStateRestore:
		return m.updateRestore(msg)
	}

	return m, nil
}

func (m SettingsModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "p":
		return m.enterPasswordForm()
	case "s":
		return m, func() tea.Msg {
			ctx, cancel := OpCtx()
			defer cancel()

			_ = m.ctrl.Logout(ctx)

			return LoggedOutMsg{}
		}
	case "b":
		return m, m.exportBackupCmd()
	case "i":
		if role.CanManageBackups(m.ctrl.CurrentRole()) {
			m.state = settingsStateRestore
			return m, m.filePicker.Init()
		}
	}

	return m, nil
}

func (m SettingsModel) enterPasswordForm() (tea.Model, tea.Cmd) {
	m.formCurrent = ""
	m.formNext = ""
	m.formConfirm = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("current").
				Title("Palavra-passe atual").
				EchoMode(huh.EchoModePassword).
				Value(&m.formCurrent),

			huh.NewInput().
				Key("next").
				Title("Nova palavra-passe").
				EchoMode(huh.EchoModePassword).
				Value(&m.formNext),

			huh.NewInput().
				Key("confirm").
				Title("Confirmar nova palavra-passe").
				EchoMode(huh.EchoModePassword).
				Value(&m.formConfirm),
		),
	).WithWidth(44).WithShowHelp(false)

	m.state = settingsStatePassword

	return m, m.form.Init()
}

func (m SettingsModel) updatePassword(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = settingsStateMenu
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	current := m.form.GetString("current")
	next := m.form.GetString("next")
	confirm := m.form.GetString("confirm")

	if next != confirm {
		return m, func() tea.Msg {
			return settingsOpMsg{err: fmt.Errorf("as palavras-passe não coincidem")}
		}
	}

	return m, func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if err := m.ctrl.ChangeOwnPassword(ctx, current, next); err != nil {
			return settingsOpMsg{err: err}
		}

		return settingsOpMsg{status: "palavra-passe alterada"}
	}
}

func (m SettingsModel) exportBackupCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		data, name, err := m.ctrl.ExportBackup(ctx)
		if err != nil {
			return settingsOpMsg{err: err}
		}

		if err := os.WriteFile(name, data, 0o600); err != nil {
			return settingsOpMsg{err: err}
		}

		return settingsOpMsg{status: "backup exportado para " + name}
	}
}

func (m SettingsModel) updateRestore(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = settingsStateMenu
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if ok, path := m.filePicker.DidSelectFile(msg); ok {
		return m, m.restoreCmd(path)
	}

	return m, cmd
}

func (m SettingsModel) restoreCmd(path string) tea.Cmd {
	return func() tea.Msg {
		raw, err := os.ReadFile(path)
		if err != nil {
			return settingsOpMsg{err: err}
		}

		ctx, cancel := OpCtx()
		defer cancel()

		if err := m.ctrl.RestoreBackup(ctx, raw); err != nil {
			return settingsOpMsg{err: err}
		}

		return settingsOpMsg{status: "backup reposto"}
	}
}

func (m SettingsModel) View() string {
	if m.state == settingsStateRestore {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			titleStyle.Render("Repor backup (JSON)") + "\n" + m.filePicker.View(),
		)
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Definições"))
	b.WriteString("\n")

	if u := m.ctrl.CurrentUser(); u != nil {
		b.WriteString(fmt.Sprintf("Sessão: %s (%s)\n", u.Nome, u.Role.Label()))

		if exp, err := m.ctrl.SessionExpiresAt(); err == nil {
			b.WriteString(fmt.Sprintf("Expira: %s\n", format.DateTime(exp)))
		}
	}

	if m.state == settingsStatePassword && m.form != nil {
		b.WriteString("\n")
		b.WriteString(panelStyle.Width(48).Render(
			titleStyle.Render("Alterar palavra-passe") + "\n" + m.form.View(),
		))
	}

	if m.status != "" {
		b.WriteString("\n" + m.status)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
