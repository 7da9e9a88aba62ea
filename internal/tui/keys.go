package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the browser
type KeyMap struct {
	// Navigation
	Enter key.Binding
	Back  key.Binding

	// Actions
	Quit           key.Binding
	Help           key.Binding
	Filter         key.Binding
	Refresh        key.Binding
	MarkWatched    key.Binding
	MarkUnwatched  key.Binding
	ToggleFavorite key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter/l", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("h", "left", "backspace"),
			key.WithHelp("h/←", "back"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload from server"),
		),
		MarkWatched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "mark watched"),
		),
		MarkUnwatched: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "mark unwatched"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle favorite"),
		),
	}
}

// Bindings returns the bindings shown in the help screen, in order
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.Enter, k.Back, k.Filter, k.Refresh,
		k.MarkWatched, k.MarkUnwatched, k.ToggleFavorite,
		k.Help, k.Quit,
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
