package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	PickUp  key.Binding
	Drop    key.Binding
	Escape  key.Binding
	Add     key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Yes     key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left column")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right column")),
	PickUp:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pick up card")),
	Drop:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop card")),
	Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh: key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Yes:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
}
