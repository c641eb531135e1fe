package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search   key.Binding
	Metric   key.Binding
	Imperial key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Metric: key.NewBinding(
			key.WithKeys("alt+c", "f1"),
			key.WithHelp("F1/alt+c", "°C"),
		),
		Imperial: key.NewBinding(
			key.WithKeys("alt+f", "f2"),
			key.WithHelp("F2/alt+f", "°F"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Metric, k.Imperial, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
