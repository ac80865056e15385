package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const barWidth = 30

var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2).
			MarginRight(1)
	barStyle = lipgloss.NewStyle().Foreground(activeColor)
)

// DashboardModel renders revenue statistics.
type DashboardModel struct {
	CommonModel
	saleService *sale.Service

	spinner spinner.Model
	stats   *sale.Stats
	loading bool
	err     error
}

func NewDashboardModel(saleSvc *sale.Service) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return DashboardModel{
		saleService: saleSvc,
		spinner:     s,
		loading:     true,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string { return "r: refresh | Esc: back" }

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.loading = false
		m.stats, m.err = msg.stats, msg.err

		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadCmd())
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " Computing statistics...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	st := m.stats

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render("Revenue\n"+lipgloss.NewStyle().Bold(true).Render(FormatMoney(st.TotalRevenue))),
		cardStyle.Render("Sales\n"+lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(st.TotalSales))),
		cardStyle.Render("Average\n"+lipgloss.NewStyle().Bold(true).Render(FormatMoney(st.AverageSale))),
	)

	monthly := make([]bar, len(st.Monthly))
	for i, mt := range st.Monthly {
		monthly[i] = bar{label: mt.Month, value: mt.Revenue, count: mt.Sales}
	}

	byCategory := make([]bar, len(st.ByCategory))
	for i, c := range st.ByCategory {
		byCategory[i] = bar{label: c.Name, value: c.Total, count: c.Count}
	}

	recent := make([]bar, 0, 7)
	for _, d := range lastN(st.ByDate, 7) {
		recent = append(recent, bar{label: d.Date, value: d.Total, count: d.Count})
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Dashboard"),
		"",
		cards,
		"",
		section("Last 6 months", monthly),
		section("By category", byCategory),
		section("Recent days", recent),
	))
}

type bar struct {
	label string
	value decimal.Decimal
	count int
}

func section(title string, bars []bar) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Underline(true).Render(title) + "\n")

	if len(bars) == 0 {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("  no sales") + "\n")
		return b.String()
	}

	peak := decimal.Zero
	for _, br := range bars {
		if br.value.GreaterThan(peak) {
			peak = br.value
		}
	}

	for _, br := range bars {
		width := 0
		if peak.IsPositive() {
			width = int(br.value.Div(peak).Mul(decimal.NewFromInt(barWidth)).IntPart())
		}

		fmt.Fprintf(&b, "  %-14s %s %s (%d)\n",
			truncate(br.label, 14), barStyle.Render(strings.Repeat("█", width)+strings.Repeat(" ", barWidth-width)),
			FormatMoney(br.value), br.count)
	}

	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}

	return items[len(items)-n:]
}

type statsLoadedMsg struct {
	stats *sale.Stats
	err   error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	svc := m.saleService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		stats, err := svc.Stats(ctx)

		return statsLoadedMsg{stats: stats, err: err}
	}
}
