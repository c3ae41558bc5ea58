package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/h0rv/pulp/internal/config"
	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/optimistic"
	"github.com/h0rv/pulp/internal/store"
)

// Layout constants
const (
	leftPanelRatio = 0.35 // Left panel takes 35% of width
	minLeftWidth   = 30
	maxLeftWidth   = 50
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))
)

// DetailModel shows one card with a split-screen layout: metadata on the
// left, the description on the right.
type DetailModel struct {
	// Dependencies
	coord *optimistic.Coordinator
	store *store.Store
	cfg   *config.Config
	ctx   context.Context

	cardID string
	card   domain.Card

	// UI components
	editor   textarea.Model
	viewport viewport.Model
	prompt   promptModel

	// State
	editMode      bool
	confirmExit   bool // unsaved description
	confirmDelete bool
	errorMsg      string
	successMsg    string

	// View dimensions
	width  int
	height int
}

// NewDetailModel creates a detail view of cardID.
func NewDetailModel(coord *optimistic.Coordinator, cfg *config.Config, ctx context.Context, cardID string) DetailModel {
	ta := textarea.New()
	ta.Placeholder = "Describe the card..."
	ta.CharLimit = 65535
	ta.SetHeight(8)
	ta.SetWidth(40) // resized on WindowSizeMsg
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("228"))
	ta.BlurredStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))

	vp := viewport.New(40, 10)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{
		coord:    coord,
		store:    coord.Store(),
		cfg:      cfg,
		ctx:      ctx,
		cardID:   cardID,
		editor:   ta,
		viewport: vp,
	}
	m.card, _ = m.store.Card(cardID)
	m.updateViewportContent()
	return m
}

// Init initializes the detail model
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case mutationSettledMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Sync failed: %v", msg.err)
			m.successMsg = ""
		}
		return m.reloadCard()

	case storeChangedMsg:
		return m.reloadCard()

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if !m.editMode {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	if m.editMode {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// reloadCard re-reads the card from the store and closes the view when the
// card is gone.
func (m DetailModel) reloadCard() (tea.Model, tea.Cmd) {
	card, err := m.store.Card(m.cardID)
	if err != nil {
		return m, func() tea.Msg { return closeDetailMsg{} }
	}
	m.card = card
	m.updateViewportContent()
	return m, nil
}

// resizeComponents calculates and sets component dimensions
func (m *DetailModel) resizeComponents() {
	leftWidth := m.leftWidth(m.width)
	rightWidth := max(m.width-leftWidth-3, 30)
	contentHeight := max(m.height-headerHeight-footerHeight-borderSize, 10)

	m.viewport.Width = rightWidth - borderSize - 2
	m.viewport.Height = contentHeight - borderSize - 1
	m.editor.SetWidth(rightWidth - borderSize - 4)
	m.editor.SetHeight(max(contentHeight-borderSize-4, 3))
	m.updateViewportContent()
}

func (m DetailModel) leftWidth(width int) int {
	return min(max(int(float64(width)*leftPanelRatio), minLeftWidth), maxLeftWidth)
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompt.active() {
		p, outcome, cmd := m.prompt.update(msg)
		m.prompt = p
		if outcome == promptSubmitted {
			m.prompt = promptModel{}
			mut, err := m.coord.RenameCard(m.cardID, p.value())
			return m.afterMutation(mut, err, "Renamed")
		}
		return m, cmd
	}

	if m.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.confirmDelete = false
			mut, err := m.coord.DeleteCard(m.cardID)
			if err != nil {
				m.errorMsg = err.Error()
				return m, nil
			}
			return m, tea.Batch(send(m.ctx, mut), func() tea.Msg { return closeDetailMsg{} })
		case "n", "N", "esc":
			m.confirmDelete = false
		}
		return m, nil
	}

	// Unsaved description dialog
	if m.confirmExit {
		switch msg.String() {
		case "y", "Y":
			m.confirmExit = false
			m.stopEditing()
			return m, nil
		case "n", "N", "esc":
			m.confirmExit = false
			return m, nil
		case "s", "S":
			m.confirmExit = false
			return m.saveDescription()
		}
		return m, nil
	}

	// Edit mode - the textarea gets all keys except save and cancel
	if m.editMode {
		switch msg.String() {
		case "esc":
			if m.editor.Value() != m.card.Description {
				m.confirmExit = true
				return m, nil
			}
			m.stopEditing()
			return m, nil
		case "ctrl+s":
			return m.saveDescription()
		default:
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "esc":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "e":
		m.clearStatus()
		p, cmd := newPrompt(promptRenameCard, "Rename card:", m.cardID, m.card.Name)
		m.prompt = p
		return m, cmd
	case "c", "i":
		m.clearStatus()
		m.editMode = true
		m.editor.SetValue(m.card.Description)
		cmd := m.editor.Focus()
		return m, tea.Batch(cmd, textarea.Blink)
	case "d":
		m.confirmDelete = true
	case "o":
		m.browse()
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

func (m DetailModel) saveDescription() (tea.Model, tea.Cmd) {
	description := strings.TrimRight(m.editor.Value(), "\n")
	m.stopEditing()
	mut, err := m.coord.DescribeCard(m.cardID, description)
	return m.afterMutation(mut, err, "Saved")
}

func (m DetailModel) afterMutation(mut *optimistic.Mutation, err error, success string) (tea.Model, tea.Cmd) {
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	if mut != nil {
		m.successMsg = success
	}
	if card, err := m.store.Card(m.cardID); err == nil {
		m.card = card
		m.updateViewportContent()
	}
	return m, send(m.ctx, mut)
}

func (m *DetailModel) stopEditing() {
	m.editMode = false
	m.editor.Reset()
	m.editor.Blur()
}

func (m *DetailModel) clearStatus() {
	m.errorMsg = ""
	m.successMsg = ""
}

func (m *DetailModel) browse() {
	if m.cfg == nil {
		return
	}
	board, berr := m.store.Board(m.card.BoardID)
	list, lerr := m.store.List(m.card.ListID)
	if berr != nil || lerr != nil || board.OwnerLogin() == "" || board.Slug == "" || list.Slug == "" || m.card.Slug == "" {
		m.errorMsg = "Card is not synced yet"
		return
	}
	if err := browser.OpenURL(m.cfg.CardURL(board.OwnerLogin(), board.Slug, list.Slug, m.card.Slug)); err != nil {
		m.errorMsg = fmt.Sprintf("Open failed: %v", err)
	}
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	leftWidth := m.leftWidth(width)
	rightWidth := width - leftWidth - 1 // 1 char gap
	contentHeight := max(height-headerHeight-footerHeight, 10)

	leftPanel := panelBorderStyle.
		Width(leftWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderLeftPanel(leftWidth - borderSize))

	rightBorder := focusedPanelBorderStyle
	if m.editMode {
		rightBorder = panelBorderStyle
	}
	rightPanel := rightBorder.
		Width(rightWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderRightPanel())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), panels, m.renderFooter(width))
}

// renderHeader renders the top help bar
func (m DetailModel) renderHeader() string {
	switch {
	case m.prompt.active():
		return m.prompt.View()
	case m.confirmDelete:
		return WarningStyle.Render(fmt.Sprintf("Delete card %q? [y/n]", m.card.Name))
	case m.confirmExit:
		return WarningStyle.Render("Unsaved description! [Y]discard [N]cancel [S]save")
	case m.editMode:
		return dimStyle.Render("[Ctrl+S]save [ESC]cancel") + "  " + detailTitleStyle.Render("Editing description...")
	}
	return dimStyle.Render("[q]back [e]rename [c]describe [d]delete [o]open [j/k]scroll")
}

// renderFooter renders the bottom status bar
func (m DetailModel) renderFooter(width int) string {
	var left, right string

	switch {
	case m.successMsg != "":
		left = successStyle.Render("✓ " + m.successMsg)
	case m.errorMsg != "":
		left = errorStyle.Render("✗ " + m.errorMsg)
	case m.editMode:
		left = fmt.Sprintf("%d chars", len(m.editor.Value()))
	}

	if m.coord.Syncing(domain.EntityCard, m.cardID) {
		right = "syncing"
	} else if !m.editMode && m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			right = "TOP"
		case m.viewport.AtBottom():
			right = "END"
		default:
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return left + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders the card metadata panel
func (m DetailModel) renderLeftPanel(width int) string {
	var b strings.Builder

	b.WriteString(detailTitleStyle.Render(wordwrap.String(m.card.Name, width-2)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label + ": "))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}

	if board, err := m.store.Board(m.card.BoardID); err == nil {
		field("Board", board.Name)
	}
	if list, err := m.store.List(m.card.ListID); err == nil {
		field("List", list.Name)
	}
	field("Slug", m.card.Slug)
	if !m.card.CreatedAt.IsZero() {
		field("Created", formatTimeAgo(m.card.CreatedAt))
	}
	if m.card.UpdatedAt != nil {
		field("Updated", formatTimeAgo(*m.card.UpdatedAt))
	}
	if m.coord.Syncing(domain.EntityCard, m.cardID) {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("Waiting for the server..."))
	}

	return b.String()
}

// renderRightPanel renders the description viewer or editor
func (m DetailModel) renderRightPanel() string {
	var b strings.Builder
	b.WriteString(detailLabelStyle.Render("Description"))
	b.WriteString("\n")

	if m.editMode {
		b.WriteString(m.editor.View())
		return b.String()
	}
	if m.card.Description == "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No description. Press 'c' to add one."))
		return b.String()
	}
	b.WriteString(m.viewport.View())
	return b.String()
}

// updateViewportContent wraps the description to the viewport width
func (m *DetailModel) updateViewportContent() {
	wrapWidth := max(m.viewport.Width-2, 20)
	m.viewport.SetContent(detailValueStyle.Render(wordwrap.String(m.card.Description, wrapWidth)))
}

// formatTimeAgo renders t relative to now
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	unit := func(n int, suffix string) string {
		return fmt.Sprintf("%d%s ago", n, suffix)
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return unit(int(d.Minutes()), "m")
	case d < 24*time.Hour:
		return unit(int(d.Hours()), "h")
	case d < 7*24*time.Hour:
		return unit(int(d.Hours()/24), "d")
	case d < 30*24*time.Hour:
		return unit(int(d.Hours()/24/7), "w")
	case d < 365*24*time.Hour:
		return unit(int(d.Hours()/24/30), "mo")
	default:
		return unit(int(d.Hours()/24/365), "y")
	}
}

type closeDetailMsg struct{}
