package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/format"
	"github.com/dpereira/faturacao/internal/invoice"
)

// ReceivablesModel lists the faturas awaiting payment with a running
// total.
type ReceivablesModel struct {
	CommonModel
	ctrl *app.Controller

	table   table.Model
	faturas []invoice.Fatura
	total   decimal.Decimal

	loading bool
	err     error
}

func NewReceivablesModel(ctrl *app.Controller) ReceivablesModel {
	columns := []table.Column{
		{Title: "Número", Width: 12},
		{Title: "Data", Width: 12},
		{Title: "Cliente", Width: 30},
		{Title: "Valor", Width: 14},
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

	return ReceivablesModel{ctrl: ctrl, table: t}
}

func (m ReceivablesModel) Title() string { return "Contas a receber" }

func (m ReceivablesModel) ShortHelp() string { return "Esc: voltar | r: atualizar" }

func (m ReceivablesModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

type loadReceivablesMsg struct {
	faturas []invoice.Fatura
	err     error
}

func (m ReceivablesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		faturas, err := m.ctrl.Receivables(ctx)

		return loadReceivablesMsg{faturas: faturas, err: err}
	}
}

func (m ReceivablesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadReceivablesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.faturas = msg.faturas
		m.total = decimal.Zero

		rows := make([]table.Row, 0, len(m.faturas))

		for _, f := range m.faturas {
			m.total = m.total.Add(f.Valor)

			rows = append(rows, table.Row{
				f.Numero,
				format.Date(f.Data),
				f.Cliente,
				format.Money(f.Valor),
			})
		}

		m.table.SetRows(rows)

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 9)
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

func (m ReceivablesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("A carregar contas a receber...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	total := fmt.Sprintf("%d faturas por pagar | Total: %s",
		len(m.faturas), activeStyle.Render(format.Money(m.total)))

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, tableView,
			lipgloss.NewStyle().PaddingTop(1).Render(total)),
	)
}
