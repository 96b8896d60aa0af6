package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Auto     key.Binding
	Cool     key.Binding
	Warm     key.Binding
	Dry      key.Binding
	Up       key.Binding
	Down     key.Binding
	PowerOff key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Auto:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto")),
		Cool:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cool")),
		Warm:     key.NewBinding(key.WithKeys("w", "h"), key.WithHelp("w", "heat")),
		Dry:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dry")),
		Up:       key.NewBinding(key.WithKeys("+", "=", "up", "k"), key.WithHelp("+", "warmer")),
		Down:     key.NewBinding(key.WithKeys("-", "down", "j"), key.WithHelp("-", "cooler")),
		PowerOff: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "off")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Auto, k.Cool, k.Warm, k.Dry, k.Up, k.Down, k.PowerOff, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Auto, k.Cool, k.Warm, k.Dry},
		{k.Up, k.Down},
		{k.PowerOff, k.Refresh, k.Quit},
	}
}
