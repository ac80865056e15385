package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/category"
)

type categoriesState int

const (
	categoriesStateList categoriesState = iota
	categoriesStateAdd
	categoriesStateRename
	categoriesStateDelete
)

type categoryItem struct {
	c *category.Category
}

func (i categoryItem) FilterValue() string { return i.c.Name }
func (i categoryItem) Title() string       { return i.c.Name }
func (i categoryItem) Description() string {
	return "created " + FormatDate(i.c.CreatedAt)
}

// CategoriesModel manages the category catalogue.
type CategoriesModel struct {
	CommonModel
	categoryService *category.Service

	state    categoriesState
	list     list.Model
	form     *huh.Form
	selected *category.Category

	loading bool
	status  string

	values *categoryValues
}

type categoryValues struct {
	Name    string
	Confirm bool
}

func NewCategoriesModel(catSvc *category.Service) CategoriesModel {
	l := list.New(nil, categoryDelegate{}, 50, 20)
	l.Title = "Categories"
	l.SetShowHelp(false)

	return CategoriesModel{
		categoryService: catSvc,
		list:            l,
		loading:         true,
		values:          &categoryValues{},
	}
}

func (m CategoriesModel) Title() string { return "Categories" }

func (m CategoriesModel) ShortHelp() string {
	if m.state != categoriesStateList {
		return "Enter: confirm | Esc: cancel"
	}

	return "a: add | e: rename | x: delete | /: filter | Esc: back"
}

func (m CategoriesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CategoriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(apperr.MessageOf(msg.err))
			return m, nil
		}

		items := make([]list.Item, len(msg.categories))
		for i, c := range msg.categories {
			items[i] = categoryItem{c: c}
		}

		return m, m.list.SetItems(items)

	case categorySavedMsg:
		m.state = categoriesStateList
		m.form = nil

		if msg.err != nil {
			m.status = errorStyle.Render(apperr.MessageOf(msg.err))
			return m, nil
		}

		m.status = successStyle.Render(msg.status)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	if m.state == categoriesStateList {
		return m.updateList(msg)
	}

	return m.updateForm(msg)
}

func (m CategoriesModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break // let the list clear the filter
			}

			return m, Back
		case "a":
			return m.openForm(categoriesStateAdd, nil)
		case "e", "x":
			item, ok := m.list.SelectedItem().(categoryItem)
			if !ok {
				return m, nil
			}

			state := categoriesStateRename
			if keyMsg.String() == "x" {
				state = categoriesStateDelete
			}

			return m.openForm(state, item.c)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m CategoriesModel) openForm(state categoriesState, c *category.Category) (tea.Model, tea.Cmd) {
	m.state = state
	m.selected = c
	m.status = ""
	*m.values = categoryValues{}

	var field huh.Field

	switch state {
	case categoriesStateDelete:
		field = huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q? Sales keep no category.", c.Name)).
			Affirmative("Delete").
			Negative("Keep").
			Value(&m.values.Confirm)
	case categoriesStateRename:
		m.values.Name = c.Name
		field = huh.NewInput().Title("New name").Value(&m.values.Name).Validate(requiredText("name"))
	default:
		field = huh.NewInput().Title("Name").Value(&m.values.Name).Validate(requiredText("name"))
	}

	m.form = huh.NewForm(huh.NewGroup(field)).WithWidth(45).WithShowHelp(false)

	return m, m.form.Init()
}

func (m CategoriesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = categoriesStateList
		m.form = nil

		return m, nil
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

func (m CategoriesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading categories...")
	}

	content := m.list.View()

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m CategoriesModel) loadCmd() tea.Cmd {
	svc := m.categoryService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cats, err := svc.List(ctx)

		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

type categorySavedMsg struct {
	status string
	err    error
}

func (m CategoriesModel) saveCmd() tea.Cmd {
	state, selected := m.state, m.selected
	name, confirm := m.values.Name, m.values.Confirm
	svc := m.categoryService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		switch state {
		case categoriesStateDelete:
			if !confirm {
				return categorySavedMsg{status: "Kept " + selected.Name}
			}

			if err := svc.Delete(ctx, selected.ID); err != nil {
				return categorySavedMsg{err: err}
			}

			return categorySavedMsg{status: "Category deleted"}
		case categoriesStateRename:
			c, err := svc.Rename(ctx, selected.ID, name)
			if err != nil {
				return categorySavedMsg{err: err}
			}

			return categorySavedMsg{status: "Renamed to " + c.Name}
		}

		c, err := svc.Create(ctx, name)
		if err != nil {
			return categorySavedMsg{err: err}
		}

		return categorySavedMsg{status: "Created " + c.Name}
	}
}

type categoryDelegate struct{}

func (d categoryDelegate) Height() int                             { return 2 }
func (d categoryDelegate) Spacing() int                            { return 0 }
func (d categoryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d categoryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(categoryItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(activeColor).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
