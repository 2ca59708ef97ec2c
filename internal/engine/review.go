package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// ApproveRule promotes a pending rule into the active set, optionally
// applying reviewer edits first. Only pending rules can be approved; a
// reviewer racing another verdict gets common.ErrInvalidRuleState rather
// than a silent overwrite.
func (e *CleanupEngine) ApproveRule(ctx context.Context, id int64, edits *model.RuleEdit) (model.Rule, error) {
	updated, err := e.store.UpdateRule(ctx, id, func(rule *model.Rule) error {
		if rule.Status != model.StatusPending {
			return fmt.Errorf("%w: rule %d is %s, expected %s", common.ErrInvalidRuleState, id, rule.Status, model.StatusPending)
		}

		if edits != nil {
			if err := rule.Apply(*edits); err != nil {
				return err
			}
		}

		rule.Status = model.StatusApproved
		return nil
	})
	if err != nil {
		return model.Rule{}, err
	}

	slog.Info("rule approved",
		"rule_id", id,
		"pattern", updated.Pattern,
		"replacement", updated.Replacement)

	return *updated, nil
}

// RejectRule marks a pending rule rejected, keeping it for audit. The
// reason is stored with the rule. Same state contract as ApproveRule.
func (e *CleanupEngine) RejectRule(ctx context.Context, id int64, reason string) error {
	_, err := e.store.UpdateRule(ctx, id, func(rule *model.Rule) error {
		if rule.Status != model.StatusPending {
			return fmt.Errorf("%w: rule %d is %s, expected %s", common.ErrInvalidRuleState, id, rule.Status, model.StatusPending)
		}

		rule.Status = model.StatusRejected
		rule.RejectReason = reason
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("rule rejected", "rule_id", id, "reason", reason)
	return nil
}
