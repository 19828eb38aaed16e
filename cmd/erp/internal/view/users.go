package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/role"
	"github.com/dpereira/faturacao/internal/user"
)

type usersState int

const (
	usersStateBrowse usersState = iota
	usersStateForm
)

type UsersModel struct {
	CommonModel
	ctrl *app.Controller

	state usersState
	table table.Model
	users []user.User
	form  *huh.Form

	editing *user.User

	loading bool
	err     error
	status  string

	formNome     string
	formEmail    string
	formCodigo   string
	formRole     string
	formPassword string
}

func NewUsersModel(ctrl *app.Controller) UsersModel {
	columns := []table.Column{
		{Title: "Nome", Width: 24},
		{Title: "Email", Width: 26},
		{Title: "Código", Width: 8},
		{Title: "Perfil", Width: 14},
		{Title: "Estado", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return UsersModel{ctrl: ctrl, table: t}
}

func (m UsersModel) Title() string { return "Utilizadores" }

func (m UsersModel) ShortHelp() string {
	if m.state == usersStateForm {
		return "Navegar no formulário | Esc: cancelar"
	}

	return "Esc: voltar | n: novo | e: editar | a: ativar/desativar | r: atualizar"
}

func (m UsersModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

type loadUsersMsg struct {
	users []user.User
	err   error
}

type userOpMsg struct {
	status string
	err    error
}

func (m UsersModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		users, err := m.ctrl.ListUsers(ctx)

		return loadUsersMsg{users: users, err: err}
	}
}

func (m UsersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadUsersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.users = msg.users
		m.refreshTable()

		return m, nil

	case userOpMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
		} else {
			m.status = okStyle.Render(msg.status)
		}

		m.state = usersStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case usersStateBrowse:
		return m.updateBrowse(msg)
	case usersStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m UsersModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterForm(nil)
		case "e":
			if u := m.selected(); u != nil {
				return m.enterForm(u)
			}
		case "a":
			if u := m.selected(); u != nil {
				return m, m.toggleActiveCmd(u.ID, !u.Ativo)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m UsersModel) selected() *user.User {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.users) {
		return nil
	}

	u := m.users[idx]

	return &u
}

func (m UsersModel) enterForm(u *user.User) (tea.Model, tea.Cmd) {
	m.editing = u
	m.formPassword = ""

	if u != nil {
		m.formNome = u.Nome
		m.formEmail = u.Email
		m.formCodigo = u.Codigo
		m.formRole = string(u.Role)
	} else {
		m.formNome = ""
		m.formEmail = ""
		m.formCodigo = ""
		m.formRole = string(role.Comercial)
	}

	options := make([]huh.Option[string], 0, len(role.Roles()))
	for _, r := range role.Roles() {
		options = append(options, huh.NewOption(r.Label(), string(r)))
	}

	passwordTitle := "Palavra-passe"
	if u != nil {
		passwordTitle = "Nova palavra-passe (vazio mantém)"
	}

	fields := []huh.Field{
		huh.NewInput().Key("nome").Title("Nome").Value(&m.formNome),
		huh.NewInput().Key("email").Title("Email").Value(&m.formEmail),
	}

	if u == nil {
		fields = append(fields,
			huh.NewInput().Key("codigo").Title("Código (opcional)").Value(&m.formCodigo))
	}

	fields = append(fields,
		huh.NewSelect[string]().Key("role").Title("Perfil").Options(options...).Value(&m.formRole),
		huh.NewInput().Key("password").Title(passwordTitle).
			EchoMode(huh.EchoModePassword).Value(&m.formPassword),
	)

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
	m.state = usersStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m UsersModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = usersStateBrowse
			m.form = nil
			m.table.Focus()

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

	return m, m.saveCmd()
}

func (m UsersModel) saveCmd() tea.Cmd {
	nome := m.form.GetString("nome")
	email := m.form.GetString("email")
	codigo := m.form.GetString("codigo")
	r := role.Parse(m.form.GetString("role"))
	password := m.form.GetString("password")
	editing := m.editing

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if editing == nil {
			_, err := m.ctrl.CreateUser(ctx, user.CreateParams{
				Nome:     nome,
				Email:    email,
				Codigo:   codigo,
				Password: password,
				Role:     r,
			})

			return userOpMsg{status: "utilizador criado", err: err}
		}

		params := user.UpdateParams{Nome: nome, Email: email, Role: r}
		if password != "" {
			params.Password = &password
		}

		_, err := m.ctrl.UpdateUser(ctx, editing.ID, params)

		return userOpMsg{status: "utilizador atualizado", err: err}
	}
}

func (m UsersModel) toggleActiveCmd(id uuid.UUID, ativo bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		u, err := m.ctrl.SetUserActive(ctx, id, ativo)
		if err != nil {
			return userOpMsg{err: err}
		}

		status := "utilizador desativado"
		if u.Ativo {
			status = "utilizador ativado"
		}

		return userOpMsg{status: status}
	}
}

func (m *UsersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.users))

	for _, u := range m.users {
		estado := "Ativo"
		if !u.Ativo {
			estado = "Inativo"
		}

		rows = append(rows, table.Row{u.Nome, u.Email, u.Codigo, u.Role.Label(), estado})
	}

	m.table.SetRows(rows)
}

func (m UsersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("A carregar utilizadores...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := tableView

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.status)
	}

	if m.state == usersStateForm && m.form != nil {
		title := "Novo utilizador"
		if m.editing != nil {
			title = "Editar utilizador"
		}

		panel := panelStyle.Width(54).Render(titleStyle.Render(title) + "\n" + m.form.View())
		content = lipgloss.JoinVertical(lipgloss.Left, content, panel)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}
