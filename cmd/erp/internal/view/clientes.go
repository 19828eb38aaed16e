package view

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/nif"
	"github.com/dpereira/faturacao/internal/role"
)

type clientesState int

const (
	clientesStateBrowse clientesState = iota
	clientesStateForm
	clientesStateImport
)

type ClientesModel struct {
	CommonModel
	ctrl *app.Controller

	state      clientesState
	table      table.Model
	clientes   []client.Cliente
	form       *huh.Form
	filePicker filepicker.Model

	editing *client.Cliente

	loading bool
	err     error
	status  string

	formNome  string
	formEmail string
	formNIF   string
}

func NewClientesModel(ctrl *app.Controller) ClientesModel {
	columns := []table.Column{
		{Title: "Nome", Width: 32},
		{Title: "Email", Width: 28},
		{Title: "NIF", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
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

	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.SetHeight(15)

	return ClientesModel{ctrl: ctrl, table: t, filePicker: fp}
}

func (m ClientesModel) Title() string { return "Clientes" }

func (m ClientesModel) ShortHelp() string {
	switch m.state {
	case clientesStateForm:
		return "Navegar no formulário | Esc: cancelar"
	case clientesStateImport:
		return "Enter: escolher ficheiro | Esc: cancelar"
	}

	help := "Esc: voltar | r: atualizar"

	if role.CanCreateClient(m.ctrl.CurrentRole()) {
		help += " | n: novo | e: editar | x: apagar | i: importar CSV"
	}

	return help
}

func (m ClientesModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

type loadClientesMsg struct {
	clientes []client.Cliente
	err      error
}

type clienteOpMsg struct {
	status string
	err    error
}

func (m ClientesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		clientes, err := m.ctrl.ListClientes(ctx)

		return loadClientesMsg{clientes: clientes, err: err}
	}
}

func (m ClientesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadClientesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.clientes = msg.clientes
		m.refreshTable()

		return m, nil

	case clienteOpMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
		} else {
			m.status = okStyle.Render(msg.status)
		}

		m.state = clientesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case clientesStateBrowse:
		return m.updateBrowse(msg)
	case clientesStateForm:
		return m.updateForm(msg)
	case clientesStateImport:
		return m.updateImport(msg)
	}

	return m, nil
}

func (m ClientesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if c := m.selected(); c != nil {
				return m.enterForm(c)
			}
		case "x":
			if c := m.selected(); c != nil {
				return m, m.deleteCmd(c.ID)
			}
		case "i":
			m.state = clientesStateImport
			m.table.Blur()

			return m, m.filePicker.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ClientesModel) selected() *client.Cliente {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.clientes) {
		return nil
	}

	c := m.clientes[idx]

	return &c
}

func (m ClientesModel) enterForm(c *client.Cliente) (tea.Model, tea.Cmd) {
	m.editing = c

	if c != nil {
		m.formNome = c.Nome
		m.formEmail = c.Email
		m.formNIF = c.NIF
	} else {
		m.formNome = ""
		m.formEmail = ""
		m.formNIF = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("nome").
				Title("Nome").
				Value(&m.formNome),

			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.formEmail),

			huh.NewInput().
				Key("nif").
				Title("NIF").
				Value(&m.formNIF).
				Validate(nif.Validate),
		),
	).WithWidth(48).WithShowHelp(false)

	m.state = clientesStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m ClientesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = clientesStateBrowse
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

func (m ClientesModel) saveCmd() tea.Cmd {
	params := client.CreateParams{
		Nome:  m.form.GetString("nome"),
		Email: m.form.GetString("email"),
		NIF:   m.form.GetString("nif"),
	}
	editing := m.editing

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if editing == nil {
			_, err := m.ctrl.CreateCliente(ctx, params)
			return clienteOpMsg{status: "cliente criado", err: err}
		}

		_, err := m.ctrl.UpdateCliente(ctx, editing.ID, params)

		return clienteOpMsg{status: "cliente atualizado", err: err}
	}
}

func (m ClientesModel) deleteCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		err := m.ctrl.DeleteCliente(ctx, id)

		return clienteOpMsg{status: "cliente apagado", err: err}
	}
}

func (m ClientesModel) updateImport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = clientesStateBrowse
			m.table.Focus()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if ok, path := m.filePicker.DidSelectFile(msg); ok {
		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ClientesModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return clienteOpMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := OpCtx()
		defer cancel()

		result, err := m.ctrl.ImportClientes(ctx, f)
		if err != nil {
			return clienteOpMsg{err: err}
		}

		status := fmt.Sprintf("importados %d clientes", result.Imported)
		if result.Skipped > 0 {
			status += fmt.Sprintf(" (%d ignorados por NIF inválido)", result.Skipped)
		}

		return clienteOpMsg{status: status}
	}
}

func (m *ClientesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.clientes))

	for _, c := range m.clientes {
		rows = append(rows, table.Row{c.Nome, c.Email, c.NIF})
	}

	m.table.SetRows(rows)
}

func (m ClientesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("A carregar clientes...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	if m.state == clientesStateImport {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			titleStyle.Render("Importar clientes (CSV)") + "\n" + m.filePicker.View(),
		)
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := tableView

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.status)
	}

	if m.state == clientesStateForm && m.form != nil {
		title := "Novo cliente"
		if m.editing != nil {
			title = "Editar cliente"
		}

		panel := panelStyle.Width(52).Render(titleStyle.Render(title) + "\n" + m.form.View())
		content = lipgloss.JoinVertical(lipgloss.Left, content, panel)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}
