package tui

import "github.com/Veraticus/the-names-must-flow/internal/model"

// rulesLoadedMsg delivers a fresh snapshot of the pending queue.
type rulesLoadedMsg struct {
	err   error
	rules []model.Rule
}

// verdictMsg reports the outcome of one approve or reject call.
type verdictMsg struct {
	err      error
	ruleID   int64
	approved bool
}
