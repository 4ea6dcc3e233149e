package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tab          key.Binding
	Enter        key.Binding
	Refresh      key.Binding
	NewWorkspace key.Binding
	NewFlow      key.Binding
	Logout       key.Binding
	Dismiss      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NewWorkspace: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "new workspace"),
		),
		NewFlow: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new flow"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "logout"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.NewWorkspace, k.NewFlow, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Enter, k.Refresh},
		{k.NewWorkspace, k.NewFlow, k.Logout},
		{k.Dismiss, k.Help, k.Quit},
	}
}
