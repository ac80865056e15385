package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tally/internal/app"
	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/config"
)

const logFile = "tally-tui.log"

type screen int

const (
	screenLogin screen = iota
	screenMenu
	screenView
)

type menuEntry struct {
	key   string
	label string
	open  func(m model) view.View
}

var menu = []menuEntry{
	{"1", "Sales", func(m model) view.View { return view.NewListModel(m.app.Sales) }},
	{"2", "New Sale", func(m model) view.View { return view.NewNewSaleModel(m.app.Sales, m.app.Categories) }},
	{"3", "Categories", func(m model) view.View { return view.NewCategoriesModel(m.app.Categories) }},
	{"4", "Categorize Sales", func(m model) view.View {
		return view.NewReviewModel(m.app.Sales, m.app.Categories, m.app.Matching)
	}},
	{"5", "Dashboard", func(m model) view.View { return view.NewDashboardModel(m.app.Sales) }},
	{"6", "Import Sales", func(m model) view.View { return view.NewImportModel(m.app.Import) }},
	{"7", "Export Sales", func(m model) view.View { return view.NewExportModel(m.app.Export) }},
	{"8", "Reset Password", func(m model) view.View { return view.NewPasswordModel(m.app.Auth, m.session.UserID) }},
}

type model struct {
	app     *app.App
	session *auth.Session

	screen  screen
	login   view.LoginModel
	current view.View
	size    tea.WindowSizeMsg
}

func initialModel(a *app.App) model {
	return model{
		app:    a,
		screen: screenLogin,
		login:  view.NewLoginModel(a.Auth),
	}
}

func (m model) Init() tea.Cmd {
	return m.login.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.size = msg
	case view.LoggedInMsg:
		slog.Info("signed in", "username", msg.Session.Username)

		m.session = msg.Session
		m.screen = screenMenu

		return m, nil
	case view.BackMsg:
		m.screen = screenMenu
		m.current = nil

		return m, nil
	}

	switch m.screen {
	case screenLogin:
		next, cmd := m.login.Update(msg)
		m.login = next.(view.LoginModel)

		return m, cmd
	case screenMenu:
		return m.updateMenu(msg)
	}

	next, cmd := m.current.Update(msg)
	m.current = next.(view.View)

	return m, cmd
}

func (m model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q":
		return m, tea.Quit
	case "l":
		slog.Info("signed out", "username", m.session.Username)

		m.session = nil
		m.screen = screenLogin
		m.login = view.NewLoginModel(m.app.Auth)

		return m, m.login.Init()
	}

	for _, e := range menu {
		if keyMsg.String() != e.key {
			continue
		}

		m.current = e.open(m)
		m.screen = screenView

		cmds := []tea.Cmd{m.current.Init()}
		if m.size.Width > 0 {
			size := m.size
			cmds = append(cmds, func() tea.Msg { return size })
		}

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m model) View() string {
	switch m.screen {
	case screenLogin:
		return m.login.View()
	case screenMenu:
		return m.menuView()
	}

	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(m.current.ShortHelp())

	return m.current.View() + "\n" + help
}

func (m model) menuView() string {
	s := lipgloss.NewStyle().Bold(true).Render("Tally") +
		lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("  signed in as %s", m.session.Username)) + "\n\n"

	for _, e := range menu {
		s += fmt.Sprintf("%s. %s\n", e.key, e.label)
	}

	s += "\nl. Log out\nq. Quit"

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func main() {
	_ = godotenv.Load()

	f, err := tea.LogToFile(logFile, "tui")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer f.Close()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.App.LogLevel})))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		a.Close()
		os.Exit(1)
	}
}
