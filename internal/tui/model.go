// Package tui implements the full-screen review queue for pending rules.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Reviewer is the slice of the cleanup engine the review screen drives.
type Reviewer interface {
	GetPendingRules(ctx context.Context) ([]model.Rule, error)
	ApproveRule(ctx context.Context, id int64, edits *model.RuleEdit) (model.Rule, error)
	RejectRule(ctx context.Context, id int64, reason string) error
}

// State represents the current state of the review screen.
type State int

const (
	StateLoading State = iota
	StateList
	StateEditing
	StateRejecting
	StateHelp
)

// Model holds the review screen state. One rule is in focus at a time; the
// verdict keys act on it and the queue advances as verdicts land.
type Model struct {
	reviewer Reviewer
	lastErr  error
	status   string
	rules    []model.Rule
	input    textinput.Model
	keymap   KeyMap
	state    State
	cursor   int
	width    int
	height   int
	approved int
	rejected int
	quitting bool
}

// newModel creates the initial review screen model.
func newModel(reviewer Reviewer) Model {
	input := textinput.New()
	input.CharLimit = 120

	return Model{
		reviewer: reviewer,
		keymap:   DefaultKeyMap(),
		input:    input,
		state:    StateLoading,
	}
}

// Init loads the pending queue.
func (m Model) Init() tea.Cmd {
	return m.loadPending()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case rulesLoadedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = fmt.Sprintf("Failed to load pending rules: %v", msg.err)
			m.state = StateList
			return m, nil
		}
		m.rules = msg.rules
		m.clampCursor()
		m.state = StateList
		m.status = ""
		return m, nil

	case verdictMsg:
		return m.handleVerdict(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleVerdict folds one verdict outcome into the queue.
func (m Model) handleVerdict(msg verdictMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		if msg.approved {
			m.approved++
			m.status = fmt.Sprintf("Approved rule #%d", msg.ruleID)
		} else {
			m.rejected++
			m.status = fmt.Sprintf("Rejected rule #%d", msg.ruleID)
		}
		m.removeRule(msg.ruleID)

	case errors.Is(msg.err, common.ErrInvalidRuleState):
		// Another reviewer got there first; drop it from our queue.
		m.status = fmt.Sprintf("Rule #%d was already decided elsewhere", msg.ruleID)
		m.removeRule(msg.ruleID)

	case errors.Is(msg.err, model.ErrInvalidRuleDefinition):
		m.status = fmt.Sprintf("Edit not applied: %v", msg.err)

	default:
		m.lastErr = msg.err
		m.status = fmt.Sprintf("Verdict failed: %v", msg.err)
	}

	return m, nil
}

// handleKey dispatches key presses based on the current state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C quits from any state, including text entry.
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateEditing, StateRejecting:
		return m.handleInputKey(msg)
	case StateHelp:
		if key.Matches(msg, m.keymap.Help) || key.Matches(msg, m.keymap.Cancel) || key.Matches(msg, m.keymap.Quit) {
			m.state = StateList
		}
		return m, nil
	case StateLoading:
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m.handleListKey(msg)
}

// handleListKey handles keys while browsing the queue.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, m.keymap.Refresh):
		m.state = StateLoading
		return m, m.loadPending()

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.rules)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Approve):
		if rule, ok := m.selected(); ok {
			return m, m.approveRule(rule.ID, nil)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Edit):
		if rule, ok := m.selected(); ok {
			m.state = StateEditing
			m.input.Placeholder = rule.Replacement
			m.input.SetValue(rule.Replacement)
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keymap.Reject):
		if _, ok := m.selected(); ok {
			m.state = StateRejecting
			m.input.Placeholder = "reason (optional)"
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	return m, nil
}

// handleInputKey handles keys while the text input is focused.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.state = StateList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		rule, ok := m.selected()
		if !ok {
			m.state = StateList
			m.input.Blur()
			return m, nil
		}

		value := m.input.Value()
		wasEditing := m.state == StateEditing
		m.state = StateList
		m.input.Blur()

		if wasEditing {
			if value == "" || value == rule.Replacement {
				return m, m.approveRule(rule.ID, nil)
			}
			return m, m.approveRule(rule.ID, &model.RuleEdit{Replacement: &value})
		}
		return m, m.rejectRule(rule.ID, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// selected returns the rule under the cursor.
func (m Model) selected() (model.Rule, bool) {
	if len(m.rules) == 0 || m.cursor < 0 || m.cursor >= len(m.rules) {
		return model.Rule{}, false
	}
	return m.rules[m.cursor], true
}

// removeRule drops a decided rule from the queue.
func (m *Model) removeRule(id int64) {
	for i, rule := range m.rules {
		if rule.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			break
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rules) {
		m.cursor = len(m.rules) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Stats reports the verdict counts recorded this session.
func (m Model) Stats() (approved, rejected int) {
	return m.approved, m.rejected
}
