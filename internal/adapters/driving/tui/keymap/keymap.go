// Package keymap defines keybindings for the login view.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings available while waiting for the browser.
type KeyMap struct {
	// Cancel abandons the login.
	Cancel key.Binding

	// Open opens the authorization URL in the browser again.
	Open key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open browser"),
		),
	}
}

// ShortHelp returns the bindings shown under the view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Cancel}
}
