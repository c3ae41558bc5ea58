package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board view.
type KeyMap struct {
	// Navigation
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	// Cards
	AddCard    key.Binding
	RenameCard key.Binding
	DeleteCard key.Binding
	MoveCard   key.Binding
	OpenCard   key.Binding
	Browse     key.Binding

	// Lists
	AddList    key.Binding
	RenameList key.Binding
	DeleteList key.Binding
	MoveList   key.Binding

	// Drag mode
	Drop       key.Binding
	CancelDrag key.Binding
	ToColumn   key.Binding

	// Board
	Filter  key.Binding
	Refresh key.Binding
	Boards  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous list"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next list"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous card"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next card"),
		),
		AddCard: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add card"),
		),
		RenameCard: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename card"),
		),
		DeleteCard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete card"),
		),
		MoveCard: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "drag card"),
		),
		OpenCard: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "card details"),
		),
		Browse: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		AddList: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add list"),
		),
		RenameList: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "rename list"),
		),
		DeleteList: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete list"),
		),
		MoveList: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "drag list"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop"),
		),
		CancelDrag: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		ToColumn: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "drag to end of list"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter cards"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Boards: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "switch board"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.AddCard, k.RenameCard, k.DeleteCard, k.OpenCard, k.Browse},
		{k.AddList, k.RenameList, k.DeleteList, k.MoveList},
		{k.MoveCard, k.ToColumn, k.Drop, k.CancelDrag},
		{k.Filter, k.Refresh, k.Boards, k.Help, k.Quit},
	}
}
