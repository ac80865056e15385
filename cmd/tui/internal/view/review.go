package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const reviewTimeout = 5 * time.Second

// ReviewModel walks through uncategorized sales, assigns a category to each
// and learns a matching rule from the item name.
type ReviewModel struct {
	CommonModel
	saleService     *sale.Service
	categoryService *category.Service
	matchingService *matching.Service

	state           reviewState
	timeframePicker TimeframePicker

	queue   []*sale.Sale
	current *sale.Sale

	categoryInput textinput.Model

	status     string
	loading    bool
	totalCount int
	learned    int
}

type reviewState int

const (
	reviewStateTimeframe reviewState = iota
	reviewStateReviewing
)

func NewReviewModel(saleSvc *sale.Service, catSvc *category.Service, matchSvc *matching.Service) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Category"
	ti.Width = 40

	return ReviewModel{
		saleService:     saleSvc,
		categoryService: catSvc,
		matchingService: matchSvc,
		timeframePicker: NewTimeframePicker(TimeframeToday),
		categoryInput:   ti,
		state:           reviewStateTimeframe,
	}
}

func (m ReviewModel) Title() string { return "Categorize Sales" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateReviewing {
		return "Enter: save & next | Tab: skip | Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.timeframePicker.Init()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = reviewStateReviewing
		m.loading = true

		return m, m.loadUncategorizedCmd(msg.Filter())

	case loadUncategorizedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading sales: %v", msg.err)
			return m, nil
		}

		m.queue = msg.sales
		m.totalCount = len(m.queue)

		if len(m.queue) == 0 {
			m.status = "No uncategorized sales found."
			return m, nil
		}

		m.nextSale()

		return m, tea.Batch(textinput.Blink, m.suggestCmd())

	case suggestionMsg:
		if m.current != nil && msg.saleID == m.current.ID && msg.name != "" && m.categoryInput.Value() == "" {
			m.categoryInput.SetValue(msg.name)
		}

		return m, nil

	case reviewSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		if msg.learned {
			m.learned++
		}

		return m.advance()

	case tea.KeyMsg:
		if m.state == reviewStateTimeframe {
			if msg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
				return m, Back
			}

			var cmd tea.Cmd
			m.timeframePicker, cmd = m.timeframePicker.Update(msg)

			return m, cmd
		}

		if m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyTab:
			if m.current != nil {
				return m.advance()
			}
		case tea.KeyEnter:
			if m.current != nil {
				return m, m.saveAndNextCmd(m.current, m.categoryInput.Value())
			}
		}
	}

	if m.state == reviewStateTimeframe {
		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.categoryInput, cmd = m.categoryInput.Update(msg)

	return m, cmd
}

func (m ReviewModel) advance() (tea.Model, tea.Cmd) {
	if len(m.queue) == 0 {
		m.current = nil
		m.categoryInput.Blur()
		m.categoryInput.SetValue("")
		m.status = fmt.Sprintf("All done! %d rules learned.", m.learned)

		return m, nil
	}

	m.nextSale()

	return m, tea.Batch(textinput.Blink, m.suggestCmd())
}

func (m ReviewModel) View() string {
	if m.state == reviewStateTimeframe {
		return lipgloss.NewStyle().Padding(2).Render(m.timeframePicker.View())
	}

	var content string

	switch {
	case m.loading:
		content = "Loading uncategorized sales..."
	case m.current != nil:
		info := fmt.Sprintf(
			"Date:  %s\nItem:  %s\nTotal: %s (%s x %s)\n",
			FormatDate(m.current.Date),
			m.current.ItemName,
			FormatMoney(m.current.Total),
			m.current.Quantity.String(),
			FormatMoney(m.current.Price),
		)
		content = fmt.Sprintf("%s\n\n%s\nCategory:\n%s\n\n(Enter to save & next, Tab to skip, Esc to quit)",
			m.status, info, m.categoryInput.View())
	default:
		content = m.status + "\n\n(Esc to back)"
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

func (m *ReviewModel) nextSale() {
	m.current = m.queue[0]
	m.queue = m.queue[1:]

	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)
	m.categoryInput.SetValue("")
	m.categoryInput.Focus()
}

type loadUncategorizedMsg struct {
	sales []*sale.Sale
	err   error
}

func (m ReviewModel) loadUncategorizedCmd(filter sale.ListFilter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		sales, err := m.saleService.List(ctx, filter)
		if err != nil {
			return loadUncategorizedMsg{err: err}
		}

		return loadUncategorizedMsg{sales: uncategorized(sales)}
	}
}

// uncategorized keeps sales without a resolvable category, oldest first.
func uncategorized(sales []*sale.Sale) []*sale.Sale {
	out := make([]*sale.Sale, 0, len(sales))
	for i := len(sales) - 1; i >= 0; i-- {
		if sales[i].Category == nil {
			out = append(out, sales[i])
		}
	}

	return out
}

type suggestionMsg struct {
	saleID uuid.UUID
	name   string
}

func (m ReviewModel) suggestCmd() tea.Cmd {
	if m.current == nil {
		return nil
	}

	id := m.current.ID
	itemName := m.current.ItemName

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		cat, err := m.matchingService.Suggest(ctx, itemName)
		if err != nil || cat == nil {
			return suggestionMsg{saleID: id}
		}

		return suggestionMsg{saleID: id, name: cat.Name}
	}
}

type reviewSaveMsg struct {
	learned bool
	err     error
}

func (m ReviewModel) saveAndNextCmd(s *sale.Sale, categoryName string) tea.Cmd {
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return func() tea.Msg { return reviewSaveMsg{} }
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		cat, _, err := m.categoryService.Ensure(ctx, categoryName)
		if err != nil {
			return reviewSaveMsg{err: err}
		}

		if _, err := m.saleService.Update(ctx, s.ID, sale.UpdateParams{CategoryID: &cat.ID}); err != nil {
			return reviewSaveMsg{err: err}
		}

		if _, err := m.matchingService.Learn(ctx, s.ItemName, cat.ID); err != nil {
			slog.Warn("failed to learn category rule", "item", s.ItemName, "error", err)
			return reviewSaveMsg{}
		}

		return reviewSaveMsg{learned: true}
	}
}
