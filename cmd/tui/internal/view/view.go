package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is a screen reachable from the main menu.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel holds state shared by every screen.
type CommonModel struct {
	Width  int
	Height int
}

// BackMsg returns the program to the main menu.
type BackMsg struct{}

func Back() tea.Msg { return BackMsg{} }
