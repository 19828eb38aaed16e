package view

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dpereira/faturacao/internal/app"
	"github.com/dpereira/faturacao/internal/format"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/role"
)

type faturasState int

const (
	faturasStateBrowse faturasState = iota
	faturasStateForm
	faturasStateTransition
)

type FaturasModel struct {
	CommonModel
	ctrl *app.Controller

	state   faturasState
	table   table.Model
	faturas []invoice.Fatura
	form    *huh.Form

	// Estado filter cycling: all states plus "todas".
	filterIdx int

	editing *invoice.Fatura // nil while creating

	loading bool
	err     error
	status  string

	formCliente   string
	formData      string
	formValor     string
	formDescricao string
	formEstado    string

	formTarget       string
	formJustificacao string
}

func NewFaturasModel(ctrl *app.Controller) FaturasModel {
	columns := []table.Column{
		{Title: "Número", Width: 12},
		{Title: "Data", Width: 12},
		{Title: "Cliente", Width: 28},
		{Title: "Valor", Width: 14},
		{Title: "Estado", Width: 12},
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

	return FaturasModel{ctrl: ctrl, table: t}
}

func (m FaturasModel) Title() string { return "Faturas" }

func (m FaturasModel) ShortHelp() string {
	if m.state != faturasStateBrowse {
		return "Navegar no formulário | Esc: cancelar"
	}

	help := "Esc: voltar | f: filtro | r: atualizar | c: exportar CSV"

	r := m.ctrl.CurrentRole()
	if role.CanCreateInvoice(r) {
		help += " | n: nova | u: duplicar"
	}

	return help + " | e: editar | t: estado | x: apagar"
}

func (m FaturasModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

type loadFaturasMsg struct {
	faturas []invoice.Fatura
	err     error
}

type faturaOpMsg struct {
	status string
	err    error
}

func (m FaturasModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		faturas, err := m.ctrl.ListFaturas(ctx)

		return loadFaturasMsg{faturas: faturas, err: err}
	}
}

func (m FaturasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadFaturasMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.faturas = filterFaturas(msg.faturas, m.filterIdx)
		m.refreshTable()

		return m, nil

	case faturaOpMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
		} else {
			m.status = okStyle.Render(msg.status)
		}

		m.state = faturasStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case faturasStateBrowse:
		return m.updateBrowse(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m FaturasModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "f":
			m.filterIdx = (m.filterIdx + 1) % (len(invoice.Estados()) + 1)
			m.loading = true

			return m, m.loadCmd()
		case "n":
			return m.enterForm(nil)
		case "e":
			if f := m.selected(); f != nil {
				return m.enterForm(f)
			}
		case "t":
			if f := m.selected(); f != nil {
				return m.enterTransition(f)
			}
		case "u":
			if f := m.selected(); f != nil {
				return m, m.duplicateCmd(f.ID)
			}
		case "x":
			if f := m.selected(); f != nil {
				return m, m.deleteCmd(f.ID)
			}
		case "c":
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m FaturasModel) selected() *invoice.Fatura {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.faturas) {
		return nil
	}

	f := m.faturas[idx]

	return &f
}

func (m FaturasModel) enterForm(f *invoice.Fatura) (tea.Model, tea.Cmd) {
	m.editing = f

	if f != nil {
		m.formCliente = f.Cliente
		m.formData = format.Date(f.Data)
		m.formValor = f.Valor.StringFixed(2)
		m.formDescricao = f.Descricao
	} else {
		m.formCliente = ""
		m.formData = format.Date(time.Now())
		m.formValor = ""
		m.formDescricao = ""
		m.formEstado = string(invoice.EstadoRascunho)
	}

	fields := []huh.Field{
		huh.NewInput().
			Key("cliente").
			Title("Cliente").
			Value(&m.formCliente).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("cliente obrigatório")
				}
				return nil
			}),

		huh.NewInput().
			Key("data").
			Title("Data (DD/MM/AAAA)").
			Value(&m.formData).
			Validate(func(s string) error {
				_, err := time.Parse("02/01/2006", strings.TrimSpace(s))
				return err
			}),

		huh.NewInput().
			Key("valor").
			Title("Valor").
			Value(&m.formValor).
			Validate(func(s string) error {
				v, err := parseValor(s)
				if err != nil {
					return fmt.Errorf("valor inválido")
				}
				if !v.GreaterThan(decimal.Zero) {
					return fmt.Errorf("valor tem de ser positivo")
				}
				return nil
			}),

		huh.NewInput().
			Key("descricao").
			Title("Descrição").
			Value(&m.formDescricao),
	}

	if f == nil {
		options := make([]huh.Option[string], 0, len(invoice.Estados()))
		for _, e := range invoice.Estados() {
			options = append(options, huh.NewOption(string(e), string(e)))
		}

		fields = append(fields, huh.NewSelect[string]().
			Key("estado").
			Title("Estado inicial").
			Options(options...).
			Value(&m.formEstado))
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
	m.state = faturasStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m FaturasModel) enterTransition(f *invoice.Fatura) (tea.Model, tea.Cmd) {
	targets := m.ctrl.AllowedTargetStates()
	if len(targets) == 0 {
		m.status = errStyle.Render("permissão negada")
		return m, nil
	}

	m.editing = f
	m.formTarget = string(targets[0])
	m.formJustificacao = ""

	options := make([]huh.Option[string], 0, len(targets))
	for _, e := range targets {
		options = append(options, huh.NewOption(string(e), string(e)))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("target").
				Title(fmt.Sprintf("Novo estado (%s)", f.Estado)).
				Options(options...).
				Value(&m.formTarget),

			huh.NewInput().
				Key("justificacao").
				Title("Justificação (obrigatória para Anulada)").
				Value(&m.formJustificacao),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = faturasStateTransition
	m.table.Blur()

	return m, m.form.Init()
}

func (m FaturasModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = faturasStateBrowse
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

	if m.state == faturasStateTransition {
		return m, m.transitionCmd()
	}

	return m, m.saveCmd()
}

func (m FaturasModel) saveCmd() tea.Cmd {
	cliente := m.form.GetString("cliente")
	data, _ := time.Parse("02/01/2006", strings.TrimSpace(m.form.GetString("data")))
	valor, _ := parseValor(m.form.GetString("valor"))
	descricao := m.form.GetString("descricao")

	editing := m.editing
	estado := invoice.ParseEstado(m.form.GetString("estado"))

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if editing == nil {
			_, err := m.ctrl.CreateFatura(ctx, invoice.CreateParams{
				Data:      data,
				Cliente:   cliente,
				Valor:     valor,
				Descricao: descricao,
				Estado:    estado,
			})

			return faturaOpMsg{status: "fatura criada", err: err}
		}

		_, err := m.ctrl.UpdateFatura(ctx, editing.ID, invoice.UpdateParams{
			Data:      &data,
			Cliente:   &cliente,
			Valor:     &valor,
			Descricao: &descricao,
		})

		return faturaOpMsg{status: "fatura atualizada", err: err}
	}
}

func (m FaturasModel) transitionCmd() tea.Cmd {
	id := m.editing.ID
	target := invoice.ParseEstado(m.form.GetString("target"))
	justificacao := m.form.GetString("justificacao")

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		f, err := m.ctrl.ChangeFaturaState(ctx, id, target, justificacao)
		if err != nil {
			return faturaOpMsg{err: err}
		}

		return faturaOpMsg{status: fmt.Sprintf("estado alterado para %s", f.Estado)}
	}
}

func (m FaturasModel) duplicateCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		f, err := m.ctrl.DuplicateFatura(ctx, id)
		if err != nil {
			return faturaOpMsg{err: err}
		}

		return faturaOpMsg{status: fmt.Sprintf("duplicada como %s", f.Numero)}
	}
}

func (m FaturasModel) deleteCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		err := m.ctrl.DeleteFatura(ctx, id)

		return faturaOpMsg{status: "fatura apagada", err: err}
	}
}

func (m FaturasModel) exportCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		data, name, err := m.ctrl.ExportFaturasCSV(ctx)
		if err != nil {
			return faturaOpMsg{err: err}
		}

		if err := os.WriteFile(name, data, 0o644); err != nil {
			return faturaOpMsg{err: err}
		}

		return faturaOpMsg{status: "exportado para " + name}
	}
}

func (m *FaturasModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.faturas))

	for _, f := range m.faturas {
		rows = append(rows, table.Row{
			f.Numero,
			format.Date(f.Data),
			f.Cliente,
			format.Money(f.Valor),
			string(f.Estado),
		})
	}

	m.table.SetRows(rows)
}

func (m FaturasModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("A carregar faturas...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errStyle.Render(fmt.Sprintf("Erro: %v", m.err)))
	}

	header := fmt.Sprintf("Filtro: [f] Estado: %s", activeStyle.Render(filterLabel(m.filterIdx)))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.status)
	}

	if m.state != faturasStateBrowse && m.form != nil {
		title := "Nova fatura"
		if m.state == faturasStateTransition {
			title = "Alterar estado"
		} else if m.editing != nil {
			title = "Editar fatura"
		}

		panel := panelStyle.Width(54).Render(titleStyle.Render(title) + "\n" + m.form.View())
		content = lipgloss.JoinVertical(lipgloss.Left, content, panel)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func filterFaturas(faturas []invoice.Fatura, idx int) []invoice.Fatura {
	if idx == 0 {
		return faturas
	}

	want := invoice.Estados()[idx-1]

	var out []invoice.Fatura

	for _, f := range faturas {
		if invoice.ParseEstado(string(f.Estado)) == want {
			out = append(out, f)
		}
	}

	return out
}

func filterLabel(idx int) string {
	if idx == 0 {
		return "Todas"
	}

	return string(invoice.Estados()[idx-1])
}

// parseValor accepts both "1234.56" and the Portuguese "1234,56".
func parseValor(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(clean)
}
