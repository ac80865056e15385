package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
	listStateDelete
)

var dateFilters = []Timeframe{TimeframeAll, TimeframeThisMonth, TimeframeLastMonth}

type ListModel struct {
	CommonModel
	saleService *sale.Service

	state listState
	table table.Model
	sales []*sale.Sale
	form  *huh.Form

	dateFilterIdx int

	filter  sale.ListFilter
	loading bool
	err     error
	status  string

	values *saleValues
}

// saleValues holds form bindings. It lives behind a pointer so the bindings
// survive the model being copied between updates.
type saleValues struct {
	Item     string
	Quantity string
	Price    string
	Date     string
	Category string
	Picture  string
	Confirm  bool
}

func NewListModel(saleSvc *sale.Service) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Item", Width: 30},
		{Title: "Qty", Width: 6},
		{Title: "Price", Width: 10},
		{Title: "Total", Width: 10},
		{Title: "Category", Width: 16},
		{Title: "Picture", Width: 8},
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

	return ListModel{
		saleService: saleSvc,
		table:       t,
		loading:     true,
		values:      &saleValues{},
	}
}

func (m ListModel) Title() string { return "Sales" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateEdit:
		return "Navigate form | Esc: cancel"
	case listStateDelete:
		return "Confirm deletion | Esc: cancel"
	}

	return "Esc: back | e: edit | x: delete | d: date filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadSalesCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.sales = msg.sales
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadSalesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit, listStateDelete:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadSalesCmd()
		case "e":
			return m.enterEditMode()
		case "x":
			return m.enterDeleteMode()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(dateFilters)
			m.applyFilter(time.Now())

			return m, m.loadSalesCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *sale.Sale {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.sales) {
		return nil
	}

	return m.sales[idx]
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	s := m.selected()
	if s == nil {
		return m, nil
	}

	*m.values = saleValues{
		Item:     s.ItemName,
		Quantity: s.Quantity.String(),
		Price:    s.Price.String(),
		Date:     FormatDate(s.Date),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("itemName").
				Title("Item").
				Value(&m.values.Item).
				Validate(requiredText("item name")),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.values.Quantity).
				Validate(positiveNumber),

			huh.NewInput().
				Key("price").
				Title("Price").
				Value(&m.values.Price).
				Validate(nonNegativeNumber),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.values.Date).
				Validate(validDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) enterDeleteMode() (tea.Model, tea.Cmd) {
	s := m.selected()
	if s == nil {
		return m, nil
	}

	m.values.Confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q (%s)?", s.ItemName, FormatMoney(s.Total))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.values.Confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
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

	if m.state == listStateDelete {
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading sales...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Filter: [d] Date: %s | %d sales", activeStyle(dateFilters[m.dateFilterIdx].String()), len(m.sales))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != listStateBrowse && m.form != nil {
		title := "Edit Sale"
		if m.state == listStateDelete {
			title = "Delete Sale"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) applyFilter(now time.Time) {
	tf := dateFilters[m.dateFilterIdx]
	if tf == TimeframeAll {
		m.filter = sale.ListFilter{}
		return
	}

	start, end := dateRange(tf, now)
	m.filter = rangeFilter(start, end)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.sales))
	for _, s := range m.sales {
		picture := ""
		if s.PictureURL != "" {
			picture = "yes"
		}

		rows = append(rows, table.Row{
			FormatDate(s.Date),
			s.ItemName,
			s.Quantity.String(),
			FormatMoney(s.Price),
			FormatMoney(s.Total),
			CategoryName(s.Category),
			picture,
		})
	}

	m.table.SetRows(rows)
}

// Form validators

func requiredText(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}

		return nil
	}
}

func positiveNumber(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}

	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}

	return nil
}

func nonNegativeNumber(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}

	if d.IsNegative() {
		return errors.New("must not be negative")
	}

	return nil
}

func validDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

// Messages

type loadListMsg struct {
	sales []*sale.Sale
	err   error
}

func (m ListModel) loadSalesCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sales, err := m.saleService.List(ctx, filter)

		return loadListMsg{sales: sales, err: err}
	}
}

type listSaveMsg struct {
	status string
	err    error
}

func (m ListModel) saveCmd() tea.Cmd {
	s := m.selected()
	if s == nil {
		return nil
	}

	id := s.ID
	item := strings.TrimSpace(m.values.Item)
	quantity, _ := decimal.NewFromString(strings.TrimSpace(m.values.Quantity))
	price, _ := decimal.NewFromString(strings.TrimSpace(m.values.Price))

	params := sale.UpdateParams{
		ItemName: &item,
		Quantity: &quantity,
		Price:    &price,
	}

	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(m.values.Date)); err == nil {
		params.Date = &d
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.saleService.Update(ctx, id, params)
		if err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: fmt.Sprintf("Saved %s, total %s", updated.ItemName, FormatMoney(updated.Total))}
	}
}

func (m ListModel) deleteCmd() tea.Cmd {
	s := m.selected()
	if s == nil || !m.values.Confirm {
		return func() tea.Msg { return listSaveMsg{status: "Nothing deleted"} }
	}

	id := s.ID
	name := s.ItemName

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.saleService.Delete(ctx, id); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: fmt.Sprintf("Deleted %s", name)}
	}
}
