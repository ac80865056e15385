package view

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/auth"
)

// PasswordModel changes the signed-in user's password.
type PasswordModel struct {
	CommonModel
	authService *auth.Service
	userID      uuid.UUID

	form   *huh.Form
	values *passwordValues
	saving bool
	done   bool
	err    error
}

type passwordValues struct {
	Current string
	New     string
	Confirm string
}

func NewPasswordModel(authSvc *auth.Service, userID uuid.UUID) PasswordModel {
	m := PasswordModel{
		authService: authSvc,
		userID:      userID,
		values:      &passwordValues{},
	}
	m.form = m.newForm()

	return m
}

func (m PasswordModel) newForm() *huh.Form {
	*m.values = passwordValues{}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&m.values.Current).
				Validate(requiredText("current password")),

			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.values.New).
				Validate(requiredText("new password")),

			huh.NewInput().
				Title("Repeat new password").
				EchoMode(huh.EchoModePassword).
				Value(&m.values.Confirm).
				Validate(func(s string) error {
					if s != m.values.New {
						return errors.New("passwords do not match")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m PasswordModel) Title() string { return "Reset password" }

func (m PasswordModel) ShortHelp() string { return "Esc: back" }

func (m PasswordModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m PasswordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case passwordResetMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.newForm()

			return m, m.form.Init()
		}

		m.done = true

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.saving || m.done {
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
	m.err = nil

	return m, m.resetCmd()
}

func (m PasswordModel) View() string {
	s := lipgloss.NewStyle().Bold(true).Render("Reset password") + "\n\n"

	switch {
	case m.done:
		s += successStyle.Render("Password reset successfully") + "\n\nPress Esc to go back."
	case m.saving:
		s += "Saving..."
	default:
		if m.err != nil {
			s += errorStyle.Render(apperr.MessageOf(m.err)) + "\n\n"
		}

		s += m.form.View()
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

type passwordResetMsg struct {
	err error
}

func (m PasswordModel) resetCmd() tea.Cmd {
	svc, id := m.authService, m.userID
	current, next := m.values.Current, m.values.New

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return passwordResetMsg{err: svc.ResetPassword(ctx, id, current, next)}
	}
}
