package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines global key bindings used across the TUI.
type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	NextTab  key.Binding
	Scan     key.Binding
	Generate key.Binding
	Escape   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch tab"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/stop scan"),
		),
		Generate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "generate"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear input"),
		),
	}
}
