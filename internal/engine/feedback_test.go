package engine

import (
	"context"
	"testing"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFeedback_MovesSuccessRate(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, "STARBUCKS", model.PatternContains, "Starbucks")
	require.NoError(t, err)
	require.InDelta(t, 1.0, rule.SuccessRate, 0.001, "rules start optimistic")

	// One failure with alpha 0.2: 1.0*0.8 + 0*0.2 = 0.8.
	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))

	stored, err := eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, stored.SuccessRate, 0.0001)

	// A success pulls it back up: 0.8*0.8 + 1*0.2 = 0.84.
	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, true))

	stored, err = eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.84, stored.SuccessRate, 0.0001)
}

func TestRecordFeedback_DoesNotTouchUseCount(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, "TARGET", model.PatternContains, "Target")
	require.NoError(t, err)

	_, err = eng.Cleanup(ctx, "TARGET 00123", "txn-1", nil)
	require.NoError(t, err)

	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, true))

	stored, err := eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UseCount, "feedback is not an application")
}

func TestRecordFeedback_ConfirmsLatestApplication(t *testing.T) {
	ctx := context.Background()
	eng, _, store := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, "SHELL", model.PatternContains, "Shell")
	require.NoError(t, err)

	_, err = eng.Cleanup(ctx, "SHELL OIL 1001", "txn-1", nil)
	require.NoError(t, err)
	_, err = eng.Cleanup(ctx, "SHELL OIL 1002", "txn-2", nil)
	require.NoError(t, err)

	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))

	apps, err := store.ListRecentApplications(ctx, rule.ID, 10)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	// Newest first: the verdict lands on the latest application only.
	require.NotNil(t, apps[0].Confirmed)
	assert.False(t, *apps[0].Confirmed)
	assert.Nil(t, apps[1].Confirmed)
}

func TestRecordFeedback_AutoDemotion(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, "GREMLIN", model.PatternContains, "Gremlin Co")
	require.NoError(t, err)

	// Give the rule enough usage to be demotable.
	for i := 0; i < 5; i++ {
		_, err = eng.Cleanup(ctx, "GREMLIN STORE", "", nil)
		require.NoError(t, err)
	}

	// Failures walk the rate down: 0.8, 0.64, 0.512, 0.4096, 0.32768.
	for i := 0; i < 4; i++ {
		require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))
	}

	stored, err := eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status, "0.4096 is still above the floor")

	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))

	stored, err = eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Equal(t, demotionReason, stored.RejectReason)
	assert.InDelta(t, 0.32768, stored.SuccessRate, 0.0001)

	t.Run("demoted rule no longer matches", func(t *testing.T) {
		result, err := eng.Cleanup(ctx, "GREMLIN STORE", "", nil)
		require.NoError(t, err)
		assert.Equal(t, model.CleanedByNone, result.CleanedBy)
	})
}

func TestRecordFeedback_NoDemotionBelowMinUsage(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	rule, err := eng.CreateRule(ctx, "NEWBIE", model.PatternContains, "Newbie LLC")
	require.NoError(t, err)

	// Only two applications: not enough evidence to demote, however bad
	// the rate gets.
	for i := 0; i < 2; i++ {
		_, err = eng.Cleanup(ctx, "NEWBIE PAYMENTS", "", nil)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))
	}

	stored, err := eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Less(t, stored.SuccessRate, 0.4)
}

func TestRecordFeedback_MissingRule(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	// Late feedback for a deleted rule is logged and swallowed.
	assert.NoError(t, eng.RecordFeedback(context.Background(), 424242, true))
}

func TestRecordFeedback_CustomConfig(t *testing.T) {
	ctx := context.Background()
	_, synth, store := newTestEngine(t)

	eng := NewWithConfig(store, synth, Config{
		FeedbackAlpha: 0.5,
		DemotionFloor: 0.6,
		MinUsage:      1,
	})

	rule, err := eng.CreateRule(ctx, "FLAKY", model.PatternContains, "Flaky Inc")
	require.NoError(t, err)

	_, err = eng.Cleanup(ctx, "FLAKY SUBSCRIPTION", "", nil)
	require.NoError(t, err)

	// One failure at alpha 0.5 drops 1.0 to 0.5, under the 0.6 floor.
	require.NoError(t, eng.RecordFeedback(ctx, rule.ID, false))

	stored, err := eng.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.InDelta(t, 0.5, stored.SuccessRate, 0.0001)
}
