package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveRule(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	pending := mustInsertPending(t, store, "BLUE BOTTLE", model.PatternContains, "Blue Bottel Coffee", 0.85)

	t.Run("approval with edits", func(t *testing.T) {
		replacement := "Blue Bottle Coffee"
		approved, err := eng.ApproveRule(ctx, pending.ID, &model.RuleEdit{Replacement: &replacement})
		require.NoError(t, err)

		assert.Equal(t, model.StatusApproved, approved.Status)
		assert.Equal(t, "Blue Bottle Coffee", approved.Replacement)

		// The approved rule now participates in cleanup.
		result, err := eng.Cleanup(ctx, "SQ *BLUE BOTTLE OAKLAND", "", nil)
		require.NoError(t, err)
		assert.Equal(t, model.CleanedByRule, result.CleanedBy)
		assert.Equal(t, "Blue Bottle Coffee", result.Cleaned)
	})

	t.Run("second verdict loses", func(t *testing.T) {
		_, err := eng.ApproveRule(ctx, pending.ID, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidRuleState)
	})

	t.Run("missing rule", func(t *testing.T) {
		_, err := eng.ApproveRule(ctx, 99999, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrRuleNotFound)
	})
}

func TestApproveRule_InvalidEditLeavesRulePending(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	pending := mustInsertPending(t, store, "SHELL OIL", model.PatternContains, "Shell", 0.8)

	badPattern := "[unclosed"
	badType := model.PatternRegex
	_, err := eng.ApproveRule(ctx, pending.ID, &model.RuleEdit{Pattern: &badPattern, PatternType: &badType})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidRuleDefinition)

	stored, err := eng.GetRule(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status, "failed edits must not consume the pending state")
	assert.Equal(t, "SHELL OIL", stored.Pattern)
}

func TestRejectRule(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	pending := mustInsertPending(t, store, "MYSTERY", model.PatternContains, "Mystery Inc", 0.5)

	require.NoError(t, eng.RejectRule(ctx, pending.ID, "replacement looks wrong"))

	stored, err := eng.GetRule(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Equal(t, "replacement looks wrong", stored.RejectReason)

	t.Run("rejected rules never match", func(t *testing.T) {
		result, err := eng.Cleanup(ctx, "MYSTERY PAYMENT 42", "", nil)
		require.NoError(t, err)
		assert.Equal(t, model.CleanedByNone, result.CleanedBy)
	})

	t.Run("approval after rejection fails", func(t *testing.T) {
		_, err := eng.ApproveRule(ctx, pending.ID, nil)
		assert.ErrorIs(t, err, common.ErrInvalidRuleState)
	})
}

func TestReview_ConcurrentVerdicts(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	pending := mustInsertPending(t, store, "COSTCO WHSE", model.PatternContains, "Costco", 0.9)

	var wg sync.WaitGroup
	results := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = eng.ApproveRule(ctx, pending.ID, nil)
	}()
	go func() {
		defer wg.Done()
		results[1] = eng.RejectRule(ctx, pending.ID, "racing verdict")
	}()
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, common.ErrInvalidRuleState)
		}
	}
	assert.Equal(t, 1, winners, "exactly one verdict must win the race")

	stored, err := eng.GetRule(ctx, pending.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.StatusPending, stored.Status)
}
