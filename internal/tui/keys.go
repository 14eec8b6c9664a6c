package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit        key.Binding
	PrevSection key.Binding
	NextSection key.Binding
	Lock        key.Binding
	ClearSpan   key.Binding
	ClearCell   key.Binding
	Undo        key.Binding
	Home        key.Binding
	Save        key.Binding
	Clone       key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Duplicate   key.Binding
	LineStart   key.Binding
	LineEnd     key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Backspace   key.Binding
	Delete      key.Binding
	Commit      key.Binding
	Help        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		PrevSection: key.NewBinding(key.WithKeys("ctrl+left"), key.WithHelp("ctrl+←", "prev section")),
		NextSection: key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+→", "next section")),
		Lock:        key.NewBinding(key.WithKeys("f4"), key.WithHelp("f4", "lock")),
		ClearSpan:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear sum range")),
		ClearCell:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear cell")),
		Undo:        key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Home:        key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "home section")),
		Save:        key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "save")),
		Clone:       key.NewBinding(key.WithKeys("f8"), key.WithHelp("f8", "clone section")),
		Top:         key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "top")),
		Bottom:      key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "bottom")),
		Duplicate:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "duplicate down")),
		LineStart:   key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "line start")),
		LineEnd:     key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "line end")),
		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "tab"), key.WithHelp("↓/tab", "down")),
		Left:        key.NewBinding(key.WithKeys("left")),
		Right:       key.NewBinding(key.WithKeys("right")),
		Backspace:   key.NewBinding(key.WithKeys("backspace")),
		Delete:      key.NewBinding(key.WithKeys("delete")),
		Commit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run / next")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Save, k.Lock, k.Undo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Commit, k.Up, k.Down, k.Top, k.Bottom},
		{k.LineStart, k.LineEnd, k.ClearCell, k.ClearSpan, k.Duplicate},
		{k.PrevSection, k.NextSection, k.Home, k.Clone, k.Save},
		{k.Undo, k.Lock, k.Help, k.Quit},
	}
}
