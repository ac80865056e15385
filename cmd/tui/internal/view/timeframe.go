package view

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

// TimeframeSelectedMsg is emitted once a range has been chosen.
// Start and End are zero when All is set.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

// Filter converts the selection into a sale list filter.
func (msg TimeframeSelectedMsg) Filter() sale.ListFilter {
	if msg.All {
		return sale.ListFilter{}
	}

	return rangeFilter(msg.Start, msg.End)
}

type timeframeValues struct {
	Frame Timeframe
	Start string
	End   string
}

// TimeframePicker asks for a timeframe and, for a custom range, its two dates.
type TimeframePicker struct {
	minFrame Timeframe
	values   *timeframeValues
	form     *huh.Form
	custom   bool
}

// NewTimeframePicker offers every timeframe from minFrame onwards.
func NewTimeframePicker(minFrame Timeframe) TimeframePicker {
	m := TimeframePicker{minFrame: minFrame, values: &timeframeValues{}}
	m.Reset()

	return m
}

func (m TimeframePicker) Init() tea.Cmd {
	return m.form.Init()
}

// Reset shows the timeframe list again.
func (m *TimeframePicker) Reset() {
	*m.values = timeframeValues{Frame: m.minFrame}
	m.custom = false

	options := make([]huh.Option[Timeframe], 0, TimeframeCustom-m.minFrame+1)
	for tf := m.minFrame; tf <= TimeframeCustom; tf++ {
		options = append(options, huh.NewOption(tf.String(), tf))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Timeframe]().
				Title("Select timeframe").
				Options(options...).
				Value(&m.values.Frame),
		),
	).WithShowHelp(false)
}

func (m *TimeframePicker) askCustomRange() tea.Cmd {
	m.custom = true
	v := m.values

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Start date").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Value(&v.Start).
				Validate(requiredDate),

			huh.NewInput().
				Title("End date").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Value(&v.End).
				Validate(func(s string) error {
					if err := requiredDate(s); err != nil {
						return err
					}

					start, _ := time.Parse(time.DateOnly, strings.TrimSpace(v.Start))
					end, _ := time.Parse(time.DateOnly, strings.TrimSpace(s))
					if end.Before(start) {
						return errors.New("end date is before start date")
					}

					return nil
				}),
		),
	).WithShowHelp(false)

	return m.form.Init()
}

func requiredDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("date is required")
	}

	return validDate(s)
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.custom {
		m.Reset()
		return m, m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	v := *m.values

	switch {
	case m.custom:
		start, _ := time.Parse(time.DateOnly, strings.TrimSpace(v.Start))
		end, _ := time.Parse(time.DateOnly, strings.TrimSpace(v.End))

		return m, selected(TimeframeSelectedMsg{Start: start, End: end})
	case v.Frame == TimeframeCustom:
		return m, m.askCustomRange()
	case v.Frame == TimeframeAll:
		return m, selected(TimeframeSelectedMsg{All: true})
	}

	start, end := dateRange(v.Frame, time.Now())

	return m, selected(TimeframeSelectedMsg{Start: start, End: end})
}

func selected(msg TimeframeSelectedMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m TimeframePicker) View() string {
	hint := "(Enter to select, Esc to go back)"
	if m.custom {
		hint = "(Enter to confirm, Esc to pick another timeframe)"
	}

	return m.form.View() + "\n" + hint
}

// IsSelecting reports whether the timeframe list, not the custom range, is shown.
func (m TimeframePicker) IsSelecting() bool {
	return !m.custom
}
