package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/pattern"
	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// CreateRule persists a human-authored rule. Human rules skip review and
// are active immediately.
func (e *CleanupEngine) CreateRule(ctx context.Context, patternText string, patternType model.PatternType, replacement string) (model.Rule, error) {
	rule, err := model.NewHumanRule(patternText, patternType, replacement)
	if err != nil {
		return model.Rule{}, err
	}

	if _, err := e.store.InsertRule(ctx, &rule); err != nil {
		return model.Rule{}, fmt.Errorf("failed to save rule: %w", err)
	}

	slog.Info("rule created",
		"rule_id", rule.ID,
		"pattern", rule.Pattern,
		"replacement", rule.Replacement)

	return rule, nil
}

// GetRule fetches a single rule by id.
func (e *CleanupEngine) GetRule(ctx context.Context, id int64) (model.Rule, error) {
	rule, err := e.store.GetRule(ctx, id)
	if err != nil {
		return model.Rule{}, err
	}
	return *rule, nil
}

// GetPendingRules returns synthesized rules awaiting review, oldest first.
func (e *CleanupEngine) GetPendingRules(ctx context.Context) ([]model.Rule, error) {
	return e.store.ListPendingRules(ctx)
}

// ListRules returns rules matching the filter, newest first.
func (e *CleanupEngine) ListRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	return e.store.ListRules(ctx, filter)
}

// FindMatchingRules reports every active rule that matches a payee, best
// match first. It applies nothing and records nothing; it exists so rule
// behavior can be inspected before money-adjacent data depends on it.
func (e *CleanupEngine) FindMatchingRules(ctx context.Context, rawPayee string) ([]pattern.MatchResult, error) {
	rules, err := e.store.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	return pattern.FindAll(rawPayee, rules), nil
}

// Stats combines stored rule counts with the synthesizer's counters.
type Stats struct {
	Rules     service.RuleCounts
	Synthesis service.SynthesisStats
}

// Stats reports rule counts by status alongside synthesizer activity.
func (e *CleanupEngine) Stats(ctx context.Context) (Stats, error) {
	counts, err := e.store.CountRules(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count rules: %w", err)
	}

	return Stats{
		Rules:     counts,
		Synthesis: e.synthesizer.Stats(),
	}, nil
}
