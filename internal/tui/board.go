package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/pkg/browser"

	"github.com/h0rv/pulp/internal/config"
	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/drag"
	"github.com/h0rv/pulp/internal/optimistic"
	"github.com/h0rv/pulp/internal/store"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 35
	headerLines    = 2  // title line + hint line
	pageJumpSize   = 10 // Number of cards to jump with Ctrl+D/U
)

// Styles for the board view - base styles without width/height (set dynamically)
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	draggedCardStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("205")).
				Foreground(lipgloss.Color("0"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	dragModeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("205")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)
)

// BoardModel represents the kanban view of one board.
type BoardModel struct {
	// Dependencies
	coord *optimistic.Coordinator
	store *store.Store
	cfg   *config.Config
	ctx   context.Context

	boardID string

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model
	prompt      promptModel

	// Board state
	columns        []string            // List IDs in order
	columnNames    map[string]string   // List ID -> display name
	filteredCards  map[string][]string // List ID -> card IDs
	selectedColumn int                 // Currently selected column
	columnOffset   int                 // Horizontal scroll offset (first visible column index)
	selectedCard   map[string]int      // List ID -> selected card index
	scrollOffset   map[string]int      // List ID -> scroll offset

	// Drag state. dragKind is EntityCard or EntityList while a gesture is
	// active.
	drag     drag.Tracker
	dragKind domain.EntityType

	// View state
	width      int
	height     int
	showHelp   bool
	filterMode bool
	filterText string
	loading    bool
	confirm    *confirmation
	errorToast string
}

// confirmation is a pending destructive action awaiting y/n.
type confirmation struct {
	kind     domain.EntityType
	id       string
	question string
}

// NewBoardModel creates a board model for boardID. The board must already be
// in the store.
func NewBoardModel(coord *optimistic.Coordinator, cfg *config.Config, ctx context.Context, boardID string) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	return BoardModel{
		coord:         coord,
		store:         coord.Store(),
		cfg:           cfg,
		ctx:           ctx,
		boardID:       boardID,
		keymap:        DefaultKeyMap(),
		help:          NewHelpModel(DefaultKeyMap()),
		spinner:       sp,
		filterInput:   ti,
		columns:       []string{},
		columnNames:   make(map[string]string),
		filteredCards: make(map[string][]string),
		selectedCard:  make(map[string]int),
		scrollOffset:  make(map[string]int),
	}
}

// Init initializes the board.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
		func() tea.Msg { return storeChangedMsg{} },
	)
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.adjustColumnScroll()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case boardReloadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Refresh failed: %v", msg.err)
		}
		m.refresh()
		return m, send(m.ctx, msg.backfill)

	case mutationSettledMsg:
		m.refresh()
		if msg.err == nil {
			return m, nil
		}
		m.errorToast = fmt.Sprintf("Sync failed: %v", msg.err)
		if needsReload(msg.err) && !m.loading {
			m.loading = true
			return m, m.reload()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

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

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.filterInput.Blur()
			m.applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	if m.drag.Active() {
		if m.dragKind == domain.EntityList {
			return m.handleListDrag(msg)
		}
		return m.handleCardDrag(msg)
	}

	m.errorToast = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		cmd := m.filterInput.Focus()
		return m, cmd
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.adjustColumnScroll()
		}
	case "l", "right":
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			m.adjustColumnScroll()
		}
	case "j", "down":
		m.moveCardSelection(1)
	case "k", "up":
		m.moveCardSelection(-1)
	case "g":
		m.jumpToCard(0)
	case "G":
		m.jumpToCard(-1)
	case "ctrl+d":
		m.moveCardSelection(pageJumpSize)
	case "ctrl+u":
		m.moveCardSelection(-pageJumpSize)
	case "a":
		if colID := m.selectedColumnID(); colID != "" {
			return m.openPrompt(promptAddCard, "New card in "+m.columnNames[colID]+":", colID, "")
		}
	case "e":
		if card, ok := m.getSelectedCard(); ok {
			return m.openPrompt(promptRenameCard, "Rename card:", card.ID, card.Name)
		}
	case "d":
		if card, ok := m.getSelectedCard(); ok {
			m.confirm = &confirmation{
				kind:     domain.EntityCard,
				id:       card.ID,
				question: fmt.Sprintf("Delete card %q?", card.Name),
			}
		}
	case "A":
		return m.openPrompt(promptAddList, "New list:", m.boardID, "")
	case "E":
		if colID := m.selectedColumnID(); colID != "" {
			return m.openPrompt(promptRenameList, "Rename list:", colID, m.columnNames[colID])
		}
	case "D":
		if colID := m.selectedColumnID(); colID != "" {
			question := fmt.Sprintf("Delete list %q?", m.columnNames[colID])
			if n := m.store.CardCount(colID); n > 0 {
				question = fmt.Sprintf("Delete list %q and its %d cards?", m.columnNames[colID], n)
			}
			m.confirm = &confirmation{kind: domain.EntityList, id: colID, question: question}
		}
	case "m":
		m.pickUpCard()
	case "M":
		m.pickUpList()
	case "enter":
		if card, ok := m.getSelectedCard(); ok {
			return m, func() tea.Msg { return openDetailMsg{cardID: card.ID} }
		}
	case "o":
		if card, ok := m.getSelectedCard(); ok {
			m.browse(card)
		}
	case "r":
		if !m.loading {
			m.loading = true
			return m, m.reload()
		}
	case "b":
		return m, func() tea.Msg { return showBoardsMsg{} }
	}

	return m, nil
}

func (m BoardModel) openPrompt(action promptAction, title, target, value string) (tea.Model, tea.Cmd) {
	p, cmd := newPrompt(action, title, target, value)
	m.prompt = p
	return m, cmd
}

// submitPrompt applies the submitted prompt through the coordinator.
func (m BoardModel) submitPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	m.prompt = promptModel{}

	var (
		mut      *optimistic.Mutation
		err      error
		selectID string
	)
	switch p.action {
	case promptAddCard:
		var card domain.Card
		card, mut, err = m.coord.CreateCard(p.target, p.value(), "")
		selectID = card.ID
	case promptRenameCard:
		mut, err = m.coord.RenameCard(p.target, p.value())
	case promptAddList:
		var list domain.List
		list, mut, err = m.coord.CreateList(p.target, p.value())
		if err == nil {
			m.refresh()
			m.selectColumn(list.ID)
		}
	case promptRenameList:
		mut, err = m.coord.RenameList(p.target, p.value())
	}
	if err != nil {
		m.errorToast = err.Error()
		return m, nil
	}
	m.refresh()
	if selectID != "" {
		m.selectCard(selectID)
	}
	return m, send(m.ctx, mut)
}

func (m BoardModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch msg.String() {
	case "y", "Y":
		m.confirm = nil
		var (
			mut *optimistic.Mutation
			err error
		)
		switch c.kind {
		case domain.EntityCard:
			mut, err = m.coord.DeleteCard(c.id)
		case domain.EntityList:
			mut, err = m.coord.DeleteList(c.id)
		}
		if err != nil {
			m.errorToast = err.Error()
		}
		m.refresh()
		return m, send(m.ctx, mut)
	case "n", "N", "esc", "q":
		m.confirm = nil
	}
	return m, nil
}

// pickUpCard starts a keyboard drag of the selected card.
func (m *BoardModel) pickUpCard() {
	card, ok := m.getSelectedCard()
	if !ok {
		return
	}
	if m.filterText != "" {
		m.errorToast = "Clear the filter to move cards"
		return
	}
	if err := m.drag.PickUp(card.ID, card.ListID, m.selectedCard[card.ListID]); err != nil {
		m.errorToast = err.Error()
		return
	}
	m.dragKind = domain.EntityCard
}

// pickUpList starts a keyboard drag of the selected list.
func (m *BoardModel) pickUpList() {
	colID := m.selectedColumnID()
	if colID == "" {
		return
	}
	if err := m.drag.PickUp(colID, m.boardID, m.selectedColumn); err != nil {
		m.errorToast = err.Error()
		return
	}
	m.dragKind = domain.EntityList
}

// handleCardDrag turns keys into hover, drop and cancel events for the
// dragged card. Every hover is previewed in the store right away.
func (m BoardModel) handleCardDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	itemID := m.drag.ItemID()
	container, index := m.drag.Current()

	var (
		intent drag.MoveIntent
		ok     bool
	)
	switch msg.String() {
	case "j", "down":
		last := m.store.CardCount(container) - 1
		intent, ok = m.drag.Hover(container, min(index+1, max(last, 0)))
	case "k", "up":
		intent, ok = m.drag.Hover(container, max(index-1, 0))
	case "h", "left", "l", "right":
		delta := 1
		if msg.String() == "h" || msg.String() == "left" {
			delta = -1
		}
		col := m.columnIndex(container) + delta
		if col < 0 || col >= len(m.columns) {
			return m, nil
		}
		target := m.columns[col]
		intent, ok = m.drag.Hover(target, min(index, m.store.CardCount(target)))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		col := int(msg.Runes[0] - '1')
		if col >= len(m.columns) {
			return m, nil
		}
		intent, ok = m.drag.HoverAppend(m.columns[col])
	case "enter":
		final, err := m.drag.Drop()
		if err != nil {
			return m, nil
		}
		mut, err := m.coord.MoveCard(final)
		return m.afterDrag(itemID, mut, err)
	case "esc", "q":
		cancel, err := m.drag.Cancel()
		if err != nil {
			return m, nil
		}
		mut, err := m.coord.CancelCardMove(cancel)
		return m.afterDrag(itemID, mut, err)
	}
	if !ok {
		return m, nil
	}

	mut, err := m.coord.PreviewCardMove(intent)
	if intent.Append {
		if card, cerr := m.store.Card(itemID); cerr == nil {
			m.drag.Resolve(card.ListID, indexOfCard(m.store.Cards(card.ListID), itemID))
		}
	}
	return m.afterDrag(itemID, mut, err)
}

// handleListDrag moves the dragged list left and right.
func (m BoardModel) handleListDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	itemID := m.drag.ItemID()
	container, index := m.drag.Current()

	var (
		intent drag.MoveIntent
		ok     bool
	)
	switch msg.String() {
	case "h", "left":
		intent, ok = m.drag.Hover(container, max(index-1, 0))
	case "l", "right":
		intent, ok = m.drag.Hover(container, min(index+1, max(len(m.columns)-1, 0)))
	case "enter":
		final, err := m.drag.Drop()
		if err != nil {
			return m, nil
		}
		mut, err := m.coord.MoveList(final)
		return m.afterListDrag(itemID, mut, err)
	case "esc", "q":
		cancel, err := m.drag.Cancel()
		if err != nil {
			return m, nil
		}
		mut, err := m.coord.CancelListMove(cancel)
		return m.afterListDrag(itemID, mut, err)
	}
	if !ok {
		return m, nil
	}
	mut, err := m.coord.PreviewListMove(intent)
	return m.afterListDrag(itemID, mut, err)
}

func (m BoardModel) afterDrag(cardID string, mut *optimistic.Mutation, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.errorToast = err.Error()
	}
	m.refresh()
	m.selectCard(cardID)
	return m, send(m.ctx, mut)
}

func (m BoardModel) afterListDrag(listID string, mut *optimistic.Mutation, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.errorToast = err.Error()
	}
	m.refresh()
	m.selectColumn(listID)
	return m, send(m.ctx, mut)
}

// browse opens the selected card in the web client.
func (m *BoardModel) browse(card domain.Card) {
	if m.cfg == nil {
		return
	}
	board, err := m.store.Board(card.BoardID)
	if err != nil {
		return
	}
	list, err := m.store.List(card.ListID)
	if err != nil {
		return
	}
	if board.OwnerLogin() == "" || board.Slug == "" || list.Slug == "" || card.Slug == "" {
		m.errorToast = "Card is not synced yet"
		return
	}
	if err := browser.OpenURL(m.cfg.CardURL(board.OwnerLogin(), board.Slug, list.Slug, card.Slug)); err != nil {
		m.errorToast = fmt.Sprintf("Open failed: %v", err)
	}
}

// View renders the board - fills entire terminal exactly
func (m BoardModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	sections := []string{m.renderHeader(width), m.renderSecondHeader(width)}
	boardHeight := height - headerLines

	switch {
	case m.filterMode:
		sections = append(sections, m.filterInput.View())
		boardHeight--
	case m.prompt.active():
		sections = append(sections, m.prompt.View())
		boardHeight--
	case m.confirm != nil:
		sections = append(sections, WarningStyle.Render(m.confirm.question+" [y/n]"))
		boardHeight--
	case m.drag.Active():
		sections = append(sections, m.renderDragBar())
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	var mainContent string
	switch {
	case m.showHelp:
		helpLines := strings.Split(m.help.View(width), "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	case len(m.columns) == 0:
		emptyMsg := "No lists yet. Press 'A' to add one."
		if m.loading {
			emptyMsg = m.spinner.View() + " Loading..."
		}
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, emptyMsg)
	default:
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BoardModel) renderDragBar() string {
	if m.dragKind == domain.EntityList {
		return dragModeStyle.Render("MOVE LIST") + " h/l to move, enter to drop, esc to cancel"
	}
	return dragModeStyle.Render("MOVE CARD") + " h/j/k/l to move, 1-9 to send to a list, enter to drop, esc to cancel"
}

// renderHeader renders the board title on the left and status on the right.
func (m BoardModel) renderHeader(width int) string {
	board, err := m.store.Board(m.boardID)
	if err != nil {
		return ""
	}

	title := board.Name
	if owner := board.OwnerLogin(); owner != "" {
		title = fmt.Sprintf("%s/%s", owner, board.Name)
	}
	if m.coord.Syncing(domain.EntityBoard, board.ID) {
		title += " *"
	}

	var statusParts []string
	if m.loading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	totalCards := 0
	for _, cards := range m.filteredCards {
		totalCards += len(cards)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d cards", totalCards))
	if m.filterText != "" {
		statusParts = append(statusParts, "/"+m.filterText)
	}
	statusParts = append(statusParts, "[?]help")
	status := strings.Join(statusParts, " | ")

	padding := width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderSecondHeader renders navigation hints and position info
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:list j/k:card a:add m:move enter:view"

	right := ""
	if m.errorToast != "" {
		right = errorStyle.Render(m.errorToast)
	} else if len(m.columns) > 0 {
		colID := m.columns[m.selectedColumn]
		cards := m.filteredCards[colID]
		colPos := fmt.Sprintf("list %d/%d", m.selectedColumn+1, len(m.columns))
		if len(cards) > 0 {
			right = fmt.Sprintf("%s | card %d/%d", colPos, m.selectedCard[colID]+1, len(cards))
		} else {
			right = colPos
		}
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderBoard renders the columns within the given dimensions, scrolling
// horizontally when they overflow.
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	// lipgloss borders add 2 lines to the content height
	colContentHeight := totalHeight - 2
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	visibleCols := m.visibleColumns(totalWidth)

	colWidth := totalWidth / visibleCols
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// border (2) + padding (2)
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	maxCardLines := colContentHeight - 1
	if maxCardLines < 1 {
		maxCardLines = 1
	}

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = max(endCol-visibleCols, 0)
	}

	columnViews := make([]string, 0, visibleCols+2)
	if startCol > 0 {
		columnViews = append(columnViews, scrollIndicator("◀", colContentHeight+2))
	}
	for i := startCol; i < endCol; i++ {
		columnViews = append(columnViews, m.renderColumn(m.columns[i], i == m.selectedColumn, colWidth, colContentHeight, innerWidth, maxCardLines, i+1))
	}
	if endCol < numCols {
		columnViews = append(columnViews, scrollIndicator("▶", colContentHeight+2))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

func scrollIndicator(arrow string, height int) string {
	return lipgloss.NewStyle().
		Width(2).
		Height(height).
		Foreground(lipgloss.Color("205")).
		Align(lipgloss.Center, lipgloss.Center).
		Render(arrow)
}

// renderColumn renders a single list. innerHeight is the content height
// inside the border; maxCardLines excludes the header line.
func (m BoardModel) renderColumn(colID string, selected bool, width, innerHeight, innerWidth, maxCardLines, colNum int) string {
	cards := m.filteredCards[colID]

	headerText := fmt.Sprintf("[%d] %s (%d)", colNum, m.columnNames[colID], len(cards))
	if m.coord.Syncing(domain.EntityList, colID) {
		headerText += " *"
	}
	headerText = truncate.StringWithTail(headerText, uint(innerWidth), "…")

	scrollOffset := m.scrollOffset[colID]
	selectedIdx := m.selectedCard[colID]
	draggedID := ""
	if m.drag.Active() && m.dragKind == domain.EntityCard {
		draggedID = m.drag.ItemID()
	}

	cardSlots := max(maxCardLines-1, 1)
	needUpIndicator := scrollOffset > 0
	availableSlots := cardSlots
	if needUpIndicator {
		availableSlots--
	}
	endIdx := min(scrollOffset+availableSlots, len(cards))
	needDownIndicator := false
	if endIdx < len(cards) {
		needDownIndicator = true
		availableSlots--
		endIdx = min(scrollOffset+availableSlots, len(cards))
	}

	lines := []string{columnHeaderStyle.Render(headerText)}
	if needUpIndicator {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}
	for i := scrollOffset; i < endIdx; i++ {
		card, err := m.store.Card(cards[i])
		if err != nil {
			continue
		}
		cardText := m.formatCardText(card, innerWidth-3) // 3 for "> " or "  " prefix
		switch {
		case card.ID == draggedID:
			lines = append(lines, draggedCardStyle.Render("≡ "+cardText))
		case selected && i == selectedIdx:
			lines = append(lines, selectedCardStyle.Render("> "+cardText))
		default:
			lines = append(lines, cardStyle.Render("  "+cardText))
		}
	}
	if remaining := len(cards) - endIdx; needDownIndicator && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(cards) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}
	if m.drag.Active() && m.dragKind == domain.EntityList && m.drag.ItemID() == colID {
		borderColor = lipgloss.Color("228")
	}

	// DO NOT use MaxHeight - it truncates the border!
	colStyle := lipgloss.NewStyle().
		Width(width - 2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(strings.Join(lines, "\n"))
}

// formatCardText formats a card name for display, right-aligning markers
// for cards with a description or with unconfirmed changes.
func (m BoardModel) formatCardText(card domain.Card, maxWidth int) string {
	var markers []string
	if card.Description != "" {
		markers = append(markers, "¶")
	}
	if m.coord.Syncing(domain.EntityCard, card.ID) {
		markers = append(markers, "*")
	}
	suffix := strings.Join(markers, " ")
	if suffix == "" {
		return truncate.StringWithTail(card.Name, uint(max(maxWidth, 1)), "…")
	}

	available := max(maxWidth-lipgloss.Width(suffix)-1, 5)
	name := truncate.StringWithTail(card.Name, uint(available), "…")
	padding := max(maxWidth-lipgloss.Width(name)-lipgloss.Width(suffix), 1)
	return name + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// refresh re-reads lists and cards from the store.
func (m *BoardModel) refresh() {
	if m.drag.Active() && !m.dragTargetExists() {
		m.drag = drag.Tracker{}
	}
	m.rebuildColumns()
	m.applyFilter()
}

func (m *BoardModel) dragTargetExists() bool {
	var err error
	if m.dragKind == domain.EntityList {
		_, err = m.store.List(m.drag.ItemID())
	} else {
		_, err = m.store.Card(m.drag.ItemID())
	}
	return err == nil
}

// rebuildColumns rebuilds column structure from store
func (m *BoardModel) rebuildColumns() {
	lists := m.store.Lists(m.boardID)
	m.columns = make([]string, 0, len(lists))
	m.columnNames = make(map[string]string, len(lists))
	for _, l := range lists {
		m.columns = append(m.columns, l.ID)
		m.columnNames[l.ID] = l.Name
	}
	if m.selectedColumn >= len(m.columns) {
		m.selectedColumn = max(len(m.columns)-1, 0)
	}
	m.adjustColumnScroll()
}

// applyFilter filters cards and groups them by column
func (m *BoardModel) applyFilter() {
	m.filteredCards = make(map[string][]string, len(m.columns))
	needle := strings.ToLower(m.filterText)

	for _, colID := range m.columns {
		filtered := []string{}
		for _, card := range m.store.Cards(colID) {
			if needle != "" &&
				!strings.Contains(strings.ToLower(card.Name), needle) &&
				!strings.Contains(strings.ToLower(card.Description), needle) {
				continue
			}
			filtered = append(filtered, card.ID)
		}
		m.filteredCards[colID] = filtered

		if m.selectedCard[colID] >= len(filtered) {
			m.selectedCard[colID] = max(len(filtered)-1, 0)
		}
		m.adjustScroll(colID)
	}
}

// moveCardSelection moves the card selection up or down by delta
func (m *BoardModel) moveCardSelection(delta int) {
	colID := m.selectedColumnID()
	cards := m.filteredCards[colID]
	if len(cards) == 0 {
		return
	}
	m.selectedCard[colID] = min(max(m.selectedCard[colID]+delta, 0), len(cards)-1)
	m.adjustScroll(colID)
}

// jumpToCard jumps to a specific card index. Use -1 to jump to last card.
func (m *BoardModel) jumpToCard(idx int) {
	colID := m.selectedColumnID()
	cards := m.filteredCards[colID]
	if len(cards) == 0 {
		return
	}
	if idx < 0 || idx >= len(cards) {
		idx = len(cards) - 1
	}
	m.selectedCard[colID] = idx
	m.adjustScroll(colID)
}

// selectCard moves the selection to cardID, following it across lists.
func (m *BoardModel) selectCard(cardID string) {
	for col, colID := range m.columns {
		for i, id := range m.filteredCards[colID] {
			if id == cardID {
				m.selectedColumn = col
				m.selectedCard[colID] = i
				m.adjustScroll(colID)
				m.adjustColumnScroll()
				return
			}
		}
	}
}

func (m *BoardModel) selectColumn(listID string) {
	if col := m.columnIndex(listID); col >= 0 {
		m.selectedColumn = col
		m.adjustColumnScroll()
	}
}

// adjustScroll ensures the selected card is visible
func (m *BoardModel) adjustScroll(colID string) {
	selectedIdx := m.selectedCard[colID]

	// header lines, an optional bar, column borders, column header and
	// scroll indicators
	visibleCards := max(m.height-headerLines-1-2-3, 3)

	if selectedIdx < m.scrollOffset[colID] {
		m.scrollOffset[colID] = selectedIdx
	}
	if selectedIdx >= m.scrollOffset[colID]+visibleCards {
		m.scrollOffset[colID] = selectedIdx - visibleCards + 1
	}
}

// adjustColumnScroll ensures the selected column is visible (horizontal carousel)
func (m *BoardModel) adjustColumnScroll() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}
	visibleCols := m.visibleColumns(m.width)
	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

func (m BoardModel) visibleColumns(width int) int {
	return min(max(width/minColumnWidth, 1), max(len(m.columns), 1))
}

func (m BoardModel) columnIndex(listID string) int {
	for i, id := range m.columns {
		if id == listID {
			return i
		}
	}
	return -1
}

func (m BoardModel) selectedColumnID() string {
	if len(m.columns) == 0 {
		return ""
	}
	return m.columns[m.selectedColumn]
}

// getSelectedCard returns the currently selected card
func (m BoardModel) getSelectedCard() (domain.Card, bool) {
	colID := m.selectedColumnID()
	cards := m.filteredCards[colID]
	if len(cards) == 0 {
		return domain.Card{}, false
	}
	cardIdx := m.selectedCard[colID]
	if cardIdx >= len(cards) {
		cardIdx = 0
	}
	card, err := m.store.Card(cards[cardIdx])
	if err != nil {
		return domain.Card{}, false
	}
	return card, true
}

// reload fetches the board again, keeping unconfirmed local changes.
func (m BoardModel) reload() tea.Cmd {
	return func() tea.Msg {
		_, backfill, err := m.coord.LoadBoard(m.ctx, domain.BoardRef{ID: m.boardID})
		return boardReloadedMsg{backfill: backfill, err: err}
	}
}

func indexOfCard(cards []domain.Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Message types
type (
	boardReloadedMsg struct {
		backfill *optimistic.Mutation
		err      error
	}
	openDetailMsg struct{ cardID string }
	showBoardsMsg struct{}
)
