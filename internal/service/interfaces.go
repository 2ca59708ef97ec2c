// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// RuleFilter defines filtering options for rule queries.
type RuleFilter struct {
	Status *model.RuleStatus
	Source *model.RuleSource
	Limit  int
}

// RuleStore defines the contract for our persistence layer.
type RuleStore interface {
	// Rule operations
	ListActiveRules(ctx context.Context) ([]model.Rule, error)
	ListPendingRules(ctx context.Context) ([]model.Rule, error)
	ListRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error)
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	InsertRule(ctx context.Context, rule *model.Rule) (int64, error)
	// UpdateRule applies mutate to the current row inside one exclusive
	// transaction. The returned rule reflects the persisted state.
	UpdateRule(ctx context.Context, id int64, mutate func(*model.Rule) error) (*model.Rule, error)
	// IncrementRuleUseCount bumps use_count atomically at the SQL level so
	// concurrent engines never lose updates.
	IncrementRuleUseCount(ctx context.Context, id int64) error

	// Application audit trail
	RecordApplication(ctx context.Context, app *model.RuleApplication) error
	ConfirmLatestApplication(ctx context.Context, ruleID int64, confirmed bool) error

	// Aggregates
	CountRules(ctx context.Context) (RuleCounts, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RuleCounts aggregates the rule corpus by status.
type RuleCounts struct {
	Pending  int
	Approved int
	Rejected int
}

// SynthesisSource identifies which path produced a synthesis result.
type SynthesisSource string

// Synthesis source constants.
const (
	SynthesisLLM      SynthesisSource = "LLM"
	SynthesisCache    SynthesisSource = "CACHE"
	SynthesisFallback SynthesisSource = "FALLBACK"
)

// SynthesisResult is the total outcome of a synthesizer call. Provider
// failures fold into a fallback result instead of surfacing as errors.
type SynthesisResult struct {
	Cleaned string
	Draft   *model.RuleDraft
	Source  SynthesisSource
}

// SynthesisStats exposes the synthesizer's counters.
type SynthesisStats struct {
	Calls     int64
	CacheHits int64
	Failures  int64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ImportStats shows the results of a bulk cleanup run.
type ImportStats struct {
	Duration    time.Duration
	Total       int
	RuleHits    int
	AICleanups  int
	Passthrough int
	NewPending  int
}
