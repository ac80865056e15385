package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/importer"
)

const importTimeout = 2 * time.Minute

// ImportModel picks a CSV file, imports it and previews the stored sales.
type ImportModel struct {
	CommonModel
	importService *importer.Service

	picker  filepicker.Model
	busy    spinner.Model
	preview table.Model

	file    string
	running bool
	result  *importer.Result
	err     error
	notice  string
}

func NewImportModel(impSvc *importer.Service) ImportModel {
	picker := filepicker.New()
	picker.CurrentDirectory, _ = os.Getwd()
	picker.AllowedTypes = []string{".csv"}
	picker.SetHeight(15)

	busy := spinner.New()
	busy.Spinner = spinner.Line

	preview := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Item", Width: 28},
			{Title: "Qty", Width: 6},
			{Title: "Total", Width: 10},
			{Title: "Category", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	return ImportModel{
		importService: impSvc,
		picker:        picker,
		busy:          busy,
		preview:       preview,
	}
}

func (m ImportModel) Title() string { return "Import Sales" }

func (m ImportModel) ShortHelp() string {
	if m.result != nil || m.err != nil {
		return "↑/↓: scroll | Esc: import another file"
	}

	return "Enter: open/select | Esc: back"
}

func (m ImportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importDoneMsg:
		m.running = false
		m.result, m.err = msg.result, msg.err

		if msg.result != nil {
			m.preview.SetRows(previewRows(msg.result))
			m.preview.GotoTop()
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type != tea.KeyEsc {
			break
		}

		if m.result == nil && m.err == nil {
			return m, Back
		}

		m.result, m.err, m.notice = nil, nil, ""

		return m, m.picker.Init()
	}

	switch {
	case m.running:
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)

		return m, cmd
	case m.result != nil || m.err != nil:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.file = filepath.Base(path)
		m.running = true
		m.notice = ""

		return m, tea.Batch(m.busy.Tick, m.importCmd(path))
	}

	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = filepath.Base(path) + " is not a CSV file"
	}

	return m, cmd
}

func previewRows(res *importer.Result) []table.Row {
	rows := make([]table.Row, 0, len(res.Sales))
	for _, s := range res.Sales {
		rows = append(rows, table.Row{
			FormatDate(s.Date),
			s.ItemName,
			s.Quantity.String(),
			FormatMoney(s.Total),
			CategoryName(s.Category),
		})
	}

	return rows
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch {
	case m.running:
		return pad.Render(fmt.Sprintf("%s Importing %s...", m.busy.View(), m.file))
	case m.err != nil:
		return pad.Render(errorStyle.Render(fmt.Sprintf("Import of %s failed: %v", m.file, m.err)))
	case m.result != nil:
		return pad.Render(m.resultView())
	}

	s := "Select a sales CSV to import:\n\n" + m.picker.View()
	if m.notice != "" {
		s += "\n" + errorStyle.Render(m.notice)
	}

	return pad.Render(s)
}

func (m ImportModel) resultView() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Imported %d sales from %s", len(m.result.Sales), m.file)))
	fmt.Fprintf(&b, "\nLayout %s, encoding %s\n", activeStyle(m.result.Profile), activeStyle(m.result.Charset))

	if len(m.result.CreatedCategories) > 0 {
		b.WriteString("New categories: " + strings.Join(m.result.CreatedCategories, ", ") + "\n")
	}

	b.WriteString("\n" + m.preview.View())

	return b.String()
}

type importDoneMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	svc := m.importService

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importDoneMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		res, err := svc.Import(ctx, f)

		return importDoneMsg{result: res, err: err}
	}
}
