package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/optimistic"
)

// boardItem wraps a domain.Board for use in bubbles/list.
type boardItem struct {
	board   domain.Board
	syncing bool
}

func (i boardItem) FilterValue() string {
	return i.board.Name
}

func (i boardItem) Title() string {
	if i.syncing {
		return i.board.Name + " *"
	}
	return i.board.Name
}

func (i boardItem) Description() string {
	if i.board.Slug == "" {
		return "not synced yet"
	}
	return fmt.Sprintf("%s/%s", i.board.OwnerLogin(), i.board.Slug)
}

// boardDelegate is a custom item delegate for board items.
type boardDelegate struct{}

func (d boardDelegate) Height() int                             { return 2 }
func (d boardDelegate) Spacing() int                            { return 1 }
func (d boardDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d boardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(boardItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.Title())
	desc := i.Description()

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(desc))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(desc))
	}
}

// BoardPickerModel lists the user's boards and lets them create, rename and
// delete boards.
type BoardPickerModel struct {
	coord *optimistic.Coordinator
	ctx   context.Context

	list    list.Model
	prompt  promptModel
	confirm *confirmation
	err     error
}

// NewBoardPickerModel creates a picker over the boards in the store.
func NewBoardPickerModel(coord *optimistic.Coordinator, ctx context.Context) BoardPickerModel {
	l := list.New(nil, boardDelegate{}, 80, 20)
	l.Title = "Select a Board"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	m := BoardPickerModel{coord: coord, ctx: ctx, list: l}
	m.list.SetItems(m.items())
	return m
}

// Init initializes the model.
func (m BoardPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m BoardPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case mutationSettledMsg:
		m.err = msg.err
		cmd := m.list.SetItems(m.items())
		return m, cmd

	case storeChangedMsg:
		cmd := m.list.SetItems(m.items())
		return m, cmd

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if m.prompt.active() {
			p, outcome, cmd := m.prompt.update(msg)
			m.prompt = p
			if outcome == promptSubmitted {
				return m.submitPrompt()
			}
			return m, cmd
		}
		if m.confirm != nil {
			return m.handleConfirm(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, func() tea.Msg { return QuitMsg{} }
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			return m, func() tea.Msg { return QuitMsg{} }
		case "enter":
			if item, ok := m.list.SelectedItem().(boardItem); ok {
				return m, func() tea.Msg {
					return BoardSelectedMsg{Ref: domain.BoardRef{ID: item.board.ID}}
				}
			}
		case "n", "a":
			m.err = nil
			p, cmd := newPrompt(promptAddBoard, "New board:", "", "")
			m.prompt = p
			return m, cmd
		case "e":
			if item, ok := m.list.SelectedItem().(boardItem); ok {
				m.err = nil
				p, cmd := newPrompt(promptRenameBoard, "Rename board:", item.board.ID, item.board.Name)
				m.prompt = p
				return m, cmd
			}
		case "d":
			if item, ok := m.list.SelectedItem().(boardItem); ok {
				m.confirm = &confirmation{
					kind:     domain.EntityBoard,
					id:       item.board.ID,
					question: fmt.Sprintf("Delete board %q with all its lists and cards?", item.board.Name),
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BoardPickerModel) submitPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	m.prompt = promptModel{}

	var (
		mut *optimistic.Mutation
		err error
	)
	switch p.action {
	case promptAddBoard:
		_, mut, err = m.coord.CreateBoard(p.value())
	case promptRenameBoard:
		mut, err = m.coord.RenameBoard(p.target, p.value())
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	cmd := m.list.SetItems(m.items())
	return m, tea.Batch(cmd, send(m.ctx, mut))
}

func (m BoardPickerModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.confirm.id
		m.confirm = nil
		mut, err := m.coord.DeleteBoard(id)
		if err != nil {
			m.err = err
			return m, nil
		}
		cmd := m.list.SetItems(m.items())
		return m, tea.Batch(cmd, send(m.ctx, mut))
	case "n", "N", "esc", "q":
		m.confirm = nil
	}
	return m, nil
}

func (m BoardPickerModel) items() []list.Item {
	boards := m.coord.Store().Boards()
	items := make([]list.Item, len(boards))
	for i, b := range boards {
		items[i] = boardItem{board: b, syncing: m.coord.Syncing(domain.EntityBoard, b.ID)}
	}
	return items
}

// View renders the model.
func (m BoardPickerModel) View() string {
	view := m.list.View()

	switch {
	case m.prompt.active():
		view += "\n" + m.prompt.View()
	case m.confirm != nil:
		view += "\n" + WarningStyle.Render(m.confirm.question+" [y/n]")
	default:
		view += "\n" + HelpStyle.UnsetMarginTop().Render("enter:open n:new e:rename d:delete /:filter q:quit")
	}

	if m.err != nil {
		view += ErrorStyle.Render(fmt.Sprintf("\nError: %v", m.err))
	}
	return view
}
