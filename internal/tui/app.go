package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/h0rv/pulp/internal/config"
	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/optimistic"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenBoardPicker
	ScreenBoard
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates the flow from board selection -> board view -> card detail.
type AppModel struct {
	// Dependencies
	coord *optimistic.Coordinator
	cfg   *config.Config
	ctx   context.Context

	// Board to open on start, from flags or config
	boardRef domain.BoardRef

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	pickerErr     error
	loadingMsg    string

	// Cached models to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates the root model. A zero ref starts on the board picker.
func NewAppModel(coord *optimistic.Coordinator, cfg *config.Config, ctx context.Context, ref domain.BoardRef) AppModel {
	return AppModel{
		coord:         coord,
		cfg:           cfg,
		ctx:           ctx,
		boardRef:      ref,
		currentScreen: ScreenLoading,
		loadingMsg:    "Connecting...",
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	if !m.boardRef.IsZero() {
		return m.loadBoard(m.boardRef)
	}
	return m.loadBoards()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenBoard {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case boardsLoadedMsg:
		m.currentScreen = ScreenBoardPicker
		picker := NewBoardPickerModel(m.coord, m.ctx)
		picker.err = m.pickerErr
		m.pickerErr = nil
		m.currentModel = picker
		return m, picker.Init()

	case showBoardsMsg:
		m.currentModel = nil
		m.currentScreen = ScreenLoading
		m.loadingMsg = "Loading boards..."
		return m, m.loadBoards()

	case BoardSelectedMsg:
		m.currentModel = nil
		m.currentScreen = ScreenLoading
		m.loadingMsg = fmt.Sprintf("Loading %s...", msg.Ref)
		return m, m.loadBoard(msg.Ref)

	case boardLoadFailedMsg:
		// Fall back to the picker and show why
		m.pickerErr = msg.err
		m.loadingMsg = "Loading boards..."
		return m, m.loadBoards()

	case boardLoadedMsg:
		m.currentScreen = ScreenBoard
		board := NewBoardModel(m.coord, m.cfg, m.ctx, msg.board.ID)
		m.boardModel = &board
		m.currentModel = board
		return m, tea.Batch(board.Init(), send(m.ctx, msg.backfill))

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(m.coord, m.cfg, m.ctx, msg.cardID)
		m.currentModel = detail
		return m, detail.Init()

	case closeDetailMsg:
		if m.boardModel == nil {
			return m, nil
		}
		m.currentScreen = ScreenBoard
		m.currentModel = *m.boardModel
		return m, tea.Batch(tea.WindowSize(), func() tea.Msg { return storeChangedMsg{} })

	case mutationSettledMsg:
		// The board keeps its view of the store current even while the
		// detail screen is shown.
		if m.boardModel != nil && m.currentScreen != ScreenBoard {
			model, cmd := m.boardModel.Update(msg)
			bm := model.(BoardModel)
			m.boardModel = &bm
			var detailCmd tea.Cmd
			if m.currentModel != nil {
				m.currentModel, detailCmd = m.currentModel.Update(msg)
			}
			return m, tea.Batch(cmd, detailCmd)
		}
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// loadBoards creates a command to fetch the user's boards.
func (m AppModel) loadBoards() tea.Cmd {
	return func() tea.Msg {
		boards, err := m.coord.LoadBoards(m.ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to load boards: %w", err)}
		}
		return boardsLoadedMsg{boards: boards}
	}
}

// loadBoard creates a command to fetch a board with its lists and cards.
func (m AppModel) loadBoard(ref domain.BoardRef) tea.Cmd {
	return func() tea.Msg {
		board, backfill, err := m.coord.LoadBoard(m.ctx, ref)
		if err != nil {
			return boardLoadFailedMsg{err: fmt.Errorf("failed to load board %s: %w", ref, err)}
		}
		return boardLoadedMsg{board: board, backfill: backfill}
	}
}

// Custom messages for app transitions.
type (
	boardsLoadedMsg struct {
		boards []domain.Board
	}

	boardLoadedMsg struct {
		board    domain.Board
		backfill *optimistic.Mutation
	}

	boardLoadFailedMsg struct {
		err error
	}
)
