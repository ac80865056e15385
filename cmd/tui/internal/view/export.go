package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const (
	exportTimeout     = 2 * time.Minute
	defaultExportPath = "./exports"
)

type exportStep int

const (
	exportStepRange exportStep = iota
	exportStepDestination
	exportStepRunning
	exportStepDone
)

// ExportModel writes a directory export for a chosen timeframe and shows the
// resulting summary in a scrollable pane.
type ExportModel struct {
	CommonModel
	exportService *export.Service

	step   exportStep
	picker TimeframePicker
	dest   *huh.Form
	busy   spinner.Model
	report viewport.Model

	filter sale.ListFilter
	label  string
	dir    *string

	exported int
	err      error
}

func NewExportModel(svc *export.Service) ExportModel {
	busy := spinner.New()
	busy.Spinner = spinner.MiniDot
	busy.Style = lipgloss.NewStyle().Foreground(activeColor)

	dir := defaultExportPath

	return ExportModel{
		exportService: svc,
		picker:        NewTimeframePicker(TimeframeThisMonth),
		busy:          busy,
		report:        viewport.New(80, 15),
		dir:           &dir,
	}
}

func (m ExportModel) Title() string { return "Export Sales" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportStepRunning:
		return "Exporting..."
	case exportStepDone:
		return "↑/↓: scroll summary | Esc: back"
	}

	return "Enter: confirm | Esc: back"
}

func (m ExportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.filter = msg.Filter()
		m.label = "all time"
		if !msg.All {
			m.label = FormatDate(msg.Start) + " to " + FormatDate(msg.End)
		}

		m.dest = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Output directory").
					Description(fmt.Sprintf("%s, %s and %s/ are written here", export.CSVFile, export.SummaryFile, export.PicturesDir)).
					Placeholder(defaultExportPath).
					Value(m.dir).
					Validate(requiredText("output directory")),
			),
		).WithWidth(60).WithShowHelp(false)
		m.step = exportStepDestination

		return m, m.dest.Init()

	case exportDoneMsg:
		m.step = exportStepDone
		m.exported, m.err = msg.count, msg.err
		m.report.SetContent(msg.summary)

		return m, nil

	case tea.WindowSizeMsg:
		m.report.Width = max(msg.Width-4, 20)
		m.report.Height = max(msg.Height-10, 5)

		return m, nil
	}

	switch m.step {
	case exportStepRange:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd

	case exportStepDestination:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.step = exportStepRange
			m.picker.Reset()

			return m, m.picker.Init()
		}

		form, cmd := m.dest.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.dest = f
		}

		if m.dest.State != huh.StateCompleted {
			return m, cmd
		}

		m.step = exportStepRunning

		return m, tea.Batch(m.busy.Tick, m.exportCmd(m.filter, *m.dir))

	case exportStepRunning:
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)

	return m, cmd
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportStepRange:
		return pad.Render(m.picker.View())
	case exportStepDestination:
		return pad.Render("Exporting " + activeStyle(m.label) + "\n\n" + m.dest.View())
	case exportStepRunning:
		return pad.Render(fmt.Sprintf("%s Writing sales for %s...", m.busy.View(), m.label))
	}

	if m.err != nil {
		return pad.Render(errorStyle.Render(fmt.Sprintf("Export failed: %v", m.err)))
	}

	header := successStyle.Bold(true).Render(fmt.Sprintf("Exported %d sales to %s", m.exported, *m.dir))
	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.report.View())

	return pad.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", pane))
}

type exportDoneMsg struct {
	summary string
	count   int
	err     error
}

func (m ExportModel) exportCmd(filter sale.ListFilter, dir string) tea.Cmd {
	svc := m.exportService

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		items, err := svc.Export(ctx, filter, dir)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		return exportDoneMsg{summary: svc.GenerateSummary(items), count: len(items)}
	}
}
