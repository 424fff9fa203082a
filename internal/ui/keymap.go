package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the review keybindings.
type keyMap struct {
	Next         key.Binding
	Previous     key.Binding
	NextBest     key.Binding
	PreviousBest key.Binding
	Merge        key.Binding
	Undo         key.Binding
	Redo         key.Binding
	Reset        key.Binding
	Save         key.Binding
	BestGood     key.Binding
	BestMUA      key.Binding
	BestNoise    key.Binding
	SimGood      key.Binding
	SimMUA       key.Binding
	SimNoise     key.Binding
	AllGood      key.Binding
	AllMUA       key.Binding
	AllNoise     key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:         key.NewBinding(key.WithKeys(" ", "down"), key.WithHelp("space", "next similar")),
		Previous:     key.NewBinding(key.WithKeys("backspace", "up"), key.WithHelp("bksp", "previous similar")),
		NextBest:     key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "next best")),
		PreviousBest: key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "previous best")),
		Merge:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "merge selection")),
		Undo:         key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "redo")),
		Reset:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
		Save:         key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save snapshot")),
		BestGood:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "best → good")),
		BestMUA:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "best → mua")),
		BestNoise:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "best → noise")),
		SimGood:      key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "similar → good")),
		SimMUA:       key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "similar → mua")),
		SimNoise:     key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "similar → noise")),
		AllGood:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all → good")),
		AllMUA:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "all → mua")),
		AllNoise:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "all → noise")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
