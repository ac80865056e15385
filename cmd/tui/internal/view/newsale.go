package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/picture"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const maxPictureBytes = 5 << 20

// NewSaleModel records a single sale.
type NewSaleModel struct {
	CommonModel
	saleService     *sale.Service
	categoryService *category.Service

	form    *huh.Form
	loading bool
	saving  bool
	err     error
	created *sale.Sale

	values *saleValues
}

func NewNewSaleModel(saleSvc *sale.Service, catSvc *category.Service) NewSaleModel {
	return NewSaleModel{
		saleService:     saleSvc,
		categoryService: catSvc,
		loading:         true,
		values:          &saleValues{},
	}
}

func (m NewSaleModel) Title() string { return "New Sale" }

func (m NewSaleModel) ShortHelp() string {
	if m.created != nil {
		return "n: another sale | Esc: back"
	}

	return "Navigate form | Esc: back"
}

func (m NewSaleModel) Init() tea.Cmd {
	return m.loadCategoriesCmd()
}

func (m NewSaleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.form = m.newForm(msg.categories)

		return m, m.form.Init()

	case saleCreatedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.form = nil
			m.loading = true

			return m, m.loadCategoriesCmd()
		}

		m.err = nil
		m.created = msg.sale

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.created != nil {
			if msg.String() == "n" {
				m.created = nil
				m.loading = true

				return m, m.loadCategoriesCmd()
			}

			return m, nil
		}
	}

	if m.form == nil || m.saving {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true

	return m, m.createCmd()
}

func (m *NewSaleModel) newForm(categories []*category.Category) *huh.Form {
	*m.values = saleValues{Quantity: "1", Date: FormatDate(time.Now())}

	options := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range categories {
		options = append(options, huh.NewOption(c.Name, c.ID.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Item").
				Value(&m.values.Item).
				Validate(requiredText("item name")),

			huh.NewInput().
				Title("Quantity").
				Value(&m.values.Quantity).
				Validate(positiveNumber),

			huh.NewInput().
				Title("Price").
				Value(&m.values.Price).
				Validate(nonNegativeNumber),

			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.values.Date).
				Validate(validDate),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(options...).
				Value(&m.values.Category),

			huh.NewInput().
				Title("Picture (optional)").
				Placeholder("/path/to/photo.jpg").
				Value(&m.values.Picture),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m NewSaleModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading categories...")
	}

	if m.saving {
		return lipgloss.NewStyle().Padding(2).Render("Saving sale...")
	}

	s := lipgloss.NewStyle().Bold(true).Render("New Sale") + "\n\n"

	if m.created != nil {
		s += successStyle.Render(fmt.Sprintf("Recorded %s x%s for %s (total %s)",
			m.created.ItemName, m.created.Quantity, FormatMoney(m.created.Price), FormatMoney(m.created.Total)))
		s += "\n\nPress n to record another sale, Esc to go back."

		return lipgloss.NewStyle().Padding(2).Render(s)
	}

	if m.err != nil {
		s += errorStyle.Render(apperr.MessageOf(m.err)) + "\n\n"
	}

	if m.form != nil {
		s += m.form.View()
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

// Messages

type categoriesLoadedMsg struct {
	categories []*category.Category
	err        error
}

func (m NewSaleModel) loadCategoriesCmd() tea.Cmd {
	svc := m.categoryService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cats, err := svc.List(ctx)

		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

type saleCreatedMsg struct {
	sale *sale.Sale
	err  error
}

func (m NewSaleModel) createCmd() tea.Cmd {
	params, picturePath, err := m.params()
	svc := m.saleService

	return func() tea.Msg {
		if err != nil {
			return saleCreatedMsg{err: err}
		}

		if picturePath != "" {
			up, err := readPicture(picturePath)
			if err != nil {
				return saleCreatedMsg{err: err}
			}

			params.Picture = &up
		}

		ctx, cancel := DbCtx()
		defer cancel()

		s, err := svc.Create(ctx, params)

		return saleCreatedMsg{sale: s, err: err}
	}
}

func (m NewSaleModel) params() (sale.CreateParams, string, error) {
	params := sale.CreateParams{ItemName: strings.TrimSpace(m.values.Item)}

	var err error
	if params.Quantity, err = decimal.NewFromString(strings.TrimSpace(m.values.Quantity)); err != nil {
		return params, "", apperr.Validation("quantity must be a number")
	}

	if params.Price, err = decimal.NewFromString(strings.TrimSpace(m.values.Price)); err != nil {
		return params, "", apperr.Validation("price must be a number")
	}

	if d := strings.TrimSpace(m.values.Date); d != "" {
		date, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return params, "", apperr.Validation("date must be YYYY-MM-DD")
		}

		params.Date = &date
	}

	if m.values.Category != "" {
		id, err := uuid.Parse(m.values.Category)
		if err != nil {
			return params, "", apperr.Validation("category is invalid")
		}

		params.CategoryID = &id
	}

	return params, strings.TrimSpace(m.values.Picture), nil
}

func readPicture(path string) (picture.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return picture.Upload{}, apperr.Wrap(apperr.KindValidation, "picture could not be opened", err)
	}
	defer f.Close()

	return picture.ReadUpload(f, filepath.Base(path), maxPictureBytes)
}
