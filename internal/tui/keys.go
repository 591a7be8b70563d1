package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Interrupt key.Binding
	Quit      key.Binding
	AddURL    key.Binding
	Open      key.Binding
	Prev      key.Binding
	Next      key.Binding
	Up        key.Binding
	Down      key.Binding
	AnimNext  key.Binding
	AnimPrev  key.Binding
	Apply     key.Binding
	ApplyAll  key.Binding
	Remove    key.Binding
	Settings  key.Binding
	CreateGIF key.Binding
	Download  key.Binding

	// form modes
	Submit    key.Binding
	Cancel    key.Binding
	FocusNext key.Binding
	FocusPrev key.Binding
}

var keys = keyMap{
	Interrupt: key.NewBinding(key.WithKeys("ctrl+c")),
	Quit:      key.NewBinding(key.WithKeys("q")),
	AddURL:    key.NewBinding(key.WithKeys("u")),
	Open:      key.NewBinding(key.WithKeys("o")),
	Prev:      key.NewBinding(key.WithKeys("left", "h")),
	Next:      key.NewBinding(key.WithKeys("right", "l")),
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	AnimNext:  key.NewBinding(key.WithKeys("a")),
	AnimPrev:  key.NewBinding(key.WithKeys("A")),
	Apply:     key.NewBinding(key.WithKeys("enter")),
	ApplyAll:  key.NewBinding(key.WithKeys("*")),
	Remove:    key.NewBinding(key.WithKeys("x", "delete")),
	Settings:  key.NewBinding(key.WithKeys("e")),
	CreateGIF: key.NewBinding(key.WithKeys("g")),
	Download:  key.NewBinding(key.WithKeys("d")),

	Submit:    key.NewBinding(key.WithKeys("enter")),
	Cancel:    key.NewBinding(key.WithKeys("esc")),
	FocusNext: key.NewBinding(key.WithKeys("tab", "down")),
	FocusPrev: key.NewBinding(key.WithKeys("shift+tab", "up")),
}
