package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// promptAction names what a submitted prompt does.
type promptAction int

const (
	promptNone promptAction = iota
	promptAddCard
	promptRenameCard
	promptAddList
	promptRenameList
	promptAddBoard
	promptRenameBoard
)

type promptOutcome int

const (
	promptEditing promptOutcome = iota
	promptSubmitted
	promptCanceled
)

// promptModel is a one line text input shown above a view.
type promptModel struct {
	input  textinput.Model
	title  string
	action promptAction
	target string // ID of the entity the action applies to
}

func newPrompt(action promptAction, title, target, value string) (promptModel, tea.Cmd) {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.SetValue(value)
	ti.CursorEnd()
	cmd := ti.Focus()
	return promptModel{input: ti, title: title, action: action, target: target}, cmd
}

func (p promptModel) active() bool {
	return p.action != promptNone
}

func (p promptModel) value() string {
	return p.input.Value()
}

func (p promptModel) update(msg tea.KeyMsg) (promptModel, promptOutcome, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return p, promptSubmitted, nil
	case "esc":
		return promptModel{}, promptCanceled, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, promptEditing, cmd
}

func (p promptModel) View() string {
	if !p.active() {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, PromptStyle.UnsetMarginBottom().Render(p.title+" "), p.input.View())
}
