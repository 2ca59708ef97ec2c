package tui

import (
	"context"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// engineTimeout bounds every engine call issued from the UI so a stalled
// store can never freeze the screen.
const engineTimeout = 10 * time.Second

// loadPending fetches the review queue from the engine.
func (m Model) loadPending() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), engineTimeout)
		defer cancel()

		rules, err := m.reviewer.GetPendingRules(ctx)
		return rulesLoadedMsg{rules: rules, err: err}
	}
}

// approveRule issues an approve verdict, with optional edits applied first.
func (m Model) approveRule(id int64, edits *model.RuleEdit) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), engineTimeout)
		defer cancel()

		_, err := m.reviewer.ApproveRule(ctx, id, edits)
		return verdictMsg{ruleID: id, approved: true, err: err}
	}
}

// rejectRule issues a reject verdict with the reviewer's reason.
func (m Model) rejectRule(id int64, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), engineTimeout)
		defer cancel()

		err := m.reviewer.RejectRule(ctx, id, reason)
		return verdictMsg{ruleID: id, approved: false, err: err}
	}
}
