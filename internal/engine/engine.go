// Package engine implements the core cleanup engine for normalizing payees.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/pattern"
	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// CleanupEngine orchestrates payee cleanup across the rule store and the
// synthesizer. It holds no rule state of its own; every cleanup reads a
// fresh snapshot of the active rules.
type CleanupEngine struct {
	store       service.RuleStore
	synthesizer Synthesizer
	config      Config
}

// Config holds configuration options for the cleanup engine.
type Config struct {
	// FeedbackAlpha weights how strongly one feedback signal moves a
	// rule's success rate.
	FeedbackAlpha float64
	// DemotionFloor is the success rate below which an approved rule is
	// auto-demoted.
	DemotionFloor float64
	// MinUsage is the number of applications a rule needs before it can
	// be auto-demoted.
	MinUsage int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FeedbackAlpha: 0.2,
		DemotionFloor: 0.4,
		MinUsage:      5,
	}
}

// New creates a new cleanup engine with the given dependencies.
func New(store service.RuleStore, synthesizer Synthesizer) *CleanupEngine {
	return NewWithConfig(store, synthesizer, DefaultConfig())
}

// NewWithConfig creates a new cleanup engine with custom configuration.
// Zero config fields fall back to their defaults.
func NewWithConfig(store service.RuleStore, synthesizer Synthesizer, config Config) *CleanupEngine {
	defaults := DefaultConfig()
	if config.FeedbackAlpha <= 0 || config.FeedbackAlpha > 1 {
		config.FeedbackAlpha = defaults.FeedbackAlpha
	}
	if config.DemotionFloor <= 0 {
		config.DemotionFloor = defaults.DemotionFloor
	}
	if config.MinUsage <= 0 {
		config.MinUsage = defaults.MinUsage
	}

	return &CleanupEngine{
		store:       store,
		synthesizer: synthesizer,
		config:      config,
	}
}

// Cleanup normalizes a single raw payee. Rule hits win outright; misses go
// to the synthesizer, whose drafts are persisted for review. The result
// always carries a usable name, worst case the raw payee itself. Only a
// failure to read the rule set is an error.
func (e *CleanupEngine) Cleanup(ctx context.Context, rawPayee, transactionRef string, txnContext map[string]string) (model.CleanupResult, error) {
	rules, err := e.store.ListActiveRules(ctx)
	if err != nil {
		return model.CleanupResult{}, fmt.Errorf("failed to load active rules: %w", err)
	}

	if rule, ok := pattern.FindBest(rawPayee, rules); ok {
		slog.Debug("rule matched payee",
			"rule_id", rule.ID,
			"payee", rawPayee,
			"cleaned", rule.Replacement)

		e.recordApplication(ctx, rule.ID, transactionRef)

		ruleID := rule.ID
		return model.CleanupResult{
			Cleaned:       rule.Replacement,
			CleanedBy:     model.CleanedByRule,
			AppliedRuleID: &ruleID,
		}, nil
	}

	synthesis := e.synthesizer.Synthesize(ctx, rawPayee, txnContext)
	if synthesis.Source == service.SynthesisFallback {
		return model.CleanupResult{
			Cleaned:   synthesis.Cleaned,
			CleanedBy: model.CleanedByNone,
		}, nil
	}

	result := model.CleanupResult{
		Cleaned:   synthesis.Cleaned,
		CleanedBy: model.CleanedByAI,
	}

	if synthesis.Draft != nil {
		if id, ok := e.persistDraft(ctx, *synthesis.Draft); ok {
			result.GeneratedRuleID = &id
		}
	}

	return result, nil
}

// recordApplication writes the audit row and bumps the rule's use count.
// Bookkeeping failures are logged, never surfaced: the cleanup itself
// already succeeded.
func (e *CleanupEngine) recordApplication(ctx context.Context, ruleID int64, transactionRef string) {
	if transactionRef != "" {
		app := model.RuleApplication{RuleID: ruleID, TransactionRef: transactionRef}
		if err := e.store.RecordApplication(ctx, &app); err != nil {
			slog.Warn("failed to record rule application",
				"rule_id", ruleID,
				"transaction_ref", transactionRef,
				"error", err)
		}
	}

	if err := e.store.IncrementRuleUseCount(ctx, ruleID); err != nil {
		slog.Warn("failed to increment rule use count",
			"rule_id", ruleID,
			"error", err)
	}
}

// persistDraft turns a synthesizer draft into a pending rule. An equivalent
// rule already awaiting review is reused instead of stacking duplicates.
func (e *CleanupEngine) persistDraft(ctx context.Context, draft model.RuleDraft) (int64, bool) {
	rule, err := draft.ToRule()
	if err != nil {
		slog.Warn("discarding unusable rule draft",
			"pattern", draft.Pattern,
			"error", err)
		return 0, false
	}

	pending, err := e.store.ListPendingRules(ctx)
	if err != nil {
		slog.Warn("failed to check pending rules for duplicates", "error", err)
	} else {
		for _, existing := range pending {
			if existing.PatternType == rule.PatternType && strings.EqualFold(existing.Pattern, rule.Pattern) {
				slog.Debug("equivalent rule already pending",
					"rule_id", existing.ID,
					"pattern", rule.Pattern)
				return existing.ID, true
			}
		}
	}

	if _, err := e.store.InsertRule(ctx, &rule); err != nil {
		slog.Warn("failed to persist rule draft",
			"pattern", rule.Pattern,
			"error", err)
		return 0, false
	}

	slog.Info("rule draft pending review",
		"rule_id", rule.ID,
		"pattern", rule.Pattern,
		"replacement", rule.Replacement,
		"confidence", rule.Confidence)

	return rule.ID, true
}
