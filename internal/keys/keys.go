package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application. The query
// input always has focus, so global actions use control or function keys.
type KeyMap struct {
	// Query input
	Submit  key.Binding
	Newline key.Binding
	Clear   key.Binding

	// Result scrolling
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Views
	Help     key.Binding
	Settings key.Binding
	Back     key.Binding

	// Backend
	Refresh key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit query"),
		),
		// Bubble Tea cannot tell shift+enter from enter, so the
		// "newline, don't submit" modifier is alt.
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "settings"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "check backend"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Submit, k.Newline, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.Clear},
		{k.ScrollUp, k.ScrollDown},
		{k.Help, k.Settings, k.Refresh, k.Back, k.Quit},
	}
}
