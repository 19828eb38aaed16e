package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/format"
)

type LogsModel struct {
	CommonModel
	ctrl *app.Controller

	table   table.Model
	entries []audit.Entry

	loading bool
	err     error
}

func NewLogsModel(ctrl *app.Controller) LogsModel {
	columns := []table.Column{
		{Title: "Quando", Width: 17},
		{Title: "Quem", Width: 18},
		{Title: "Perfil", Width: 12},
		{Title: "Ação", Width: 8},
		{Title: "Entidade", Width: 9},
		{Title: "Detalhe", Width: 36},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(18),
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

	return LogsModel{ctrl: ctrl, table: t}
}

func (m LogsModel) Title() string { return "Registo de atividade" }

func (m LogsModel) ShortHelp() string { return "Esc: voltar | r: atualizar" }

func (m LogsModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

type loadLogsMsg struct {
	entries []audit.Entry
	err     error
}

func (m LogsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		entries, err := m.ctrl.AuditLog(ctx)

		return loadLogsMsg{entries: entries, err: err}
	}
}

func (m LogsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLogsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.entries = msg.entries
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *LogsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.entries))

	for _, e := range m.entries {
		rows = append(rows, table.Row{
			format.DateTime(e.Timestamp),
			e.UserIdentifier,
			e.Role.Label(),
			string(e.Action),
			string(e.Entity),
			e.Detalhe,
		})
	}

	m.table.SetRows(rows)
}

func (m LogsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("A carregar registo...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1, 2).Render(tableView)
}
