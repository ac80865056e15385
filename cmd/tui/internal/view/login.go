package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/auth"
)

const (
	modeLogin    = "login"
	modeRegister = "register"
)

// LoggedInMsg is sent once the user has signed in or registered.
type LoggedInMsg struct {
	Session *auth.Session
}

type LoginModel struct {
	CommonModel
	authService *auth.Service

	form    *huh.Form
	working bool
	err     error

	creds *credentials
}

type credentials struct {
	Mode     string
	Username string
	Password string
}

func NewLoginModel(authSvc *auth.Service) LoginModel {
	m := LoginModel{
		authService: authSvc,
		creds:       &credentials{Mode: modeLogin},
	}
	m.form = m.newForm()

	return m
}

func (m *LoginModel) newForm() *huh.Form {
	m.creds.Password = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Log in", modeLogin),
					huh.NewOption("Create an account", modeRegister),
				).
				Value(&m.creds.Mode),

			huh.NewInput().
				Title("Username").
				Value(&m.creds.Username).
				Validate(requiredText("username")),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.creds.Password).
				Validate(requiredText("password")),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Title() string { return "Sign in" }

func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.working = false
		if res.err != nil {
			m.err = res.err
			m.form = m.newForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{Session: res.session} }
	}

	if m.working {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.working = true
	m.err = nil

	return m, m.submitCmd()
}

func (m LoginModel) View() string {
	s := lipgloss.NewStyle().Bold(true).Render("Tally") + "\n\n"

	if m.working {
		return lipgloss.NewStyle().Padding(2).Render(s + "Signing in...")
	}

	if m.err != nil {
		s += errorStyle.Render(apperr.MessageOf(m.err)) + "\n\n"
	}

	return lipgloss.NewStyle().Padding(2).Render(s + m.form.View())
}

type loginResultMsg struct {
	session *auth.Session
	err     error
}

func (m LoginModel) submitCmd() tea.Cmd {
	mode, username, password := m.creds.Mode, m.creds.Username, m.creds.Password
	svc := m.authService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			session *auth.Session
			err     error
		)

		switch mode {
		case modeRegister:
			session, err = svc.Register(ctx, username, password)
		default:
			session, err = svc.Login(ctx, username, password)
		}

		if err != nil {
			return loginResultMsg{err: fmt.Errorf("%s: %w", mode, err)}
		}

		return loginResultMsg{session: session}
	}
}
