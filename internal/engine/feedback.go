package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// demotionReason marks rules retired by feedback rather than a reviewer.
const demotionReason = "auto-demoted: success rate below floor"

// RecordFeedback folds one success or failure signal into a rule's success
// rate using an exponentially weighted moving average, demoting approved
// rules whose rate sinks below the floor after enough use. The rate update
// and any demotion happen in a single atomic store mutation.
//
// Feedback can outlive its rule: a missing rule is logged and swallowed so
// late verdicts never fail a caller.
func (e *CleanupEngine) RecordFeedback(ctx context.Context, ruleID int64, wasSuccessful bool) error {
	signal := 0.0
	if wasSuccessful {
		signal = 1.0
	}

	demoted := false
	updated, err := e.store.UpdateRule(ctx, ruleID, func(rule *model.Rule) error {
		alpha := e.config.FeedbackAlpha
		rate := rule.SuccessRate*(1-alpha) + signal*alpha
		if rate < 0 {
			rate = 0
		} else if rate > 1 {
			rate = 1
		}
		rule.SuccessRate = rate

		if rule.Status == model.StatusApproved &&
			rule.UseCount >= e.config.MinUsage &&
			rule.SuccessRate < e.config.DemotionFloor {
			rule.Status = model.StatusRejected
			rule.RejectReason = demotionReason
			demoted = true
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrRuleNotFound) {
			slog.Warn("feedback for missing rule", "rule_id", ruleID)
			return nil
		}
		return err
	}

	// Close out the audit row for the application this verdict refers to.
	if err := e.store.ConfirmLatestApplication(ctx, ruleID, wasSuccessful); err != nil {
		slog.Warn("failed to confirm rule application",
			"rule_id", ruleID,
			"error", err)
	}

	if demoted {
		slog.Warn("rule auto-demoted",
			"rule_id", ruleID,
			"pattern", updated.Pattern,
			"success_rate", updated.SuccessRate,
			"use_count", updated.UseCount)
	} else {
		slog.Debug("feedback recorded",
			"rule_id", ruleID,
			"successful", wasSuccessful,
			"success_rate", updated.SuccessRate)
	}

	return nil
}
