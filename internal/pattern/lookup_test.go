package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

func approvedRule(id int64, pattern string, pt model.PatternType, replacement string, confidence float64) model.Rule {
	return model.Rule{
		ID:          id,
		Pattern:     pattern,
		PatternType: pt,
		Replacement: replacement,
		Status:      model.StatusApproved,
		Confidence:  confidence,
		SuccessRate: 1.0,
	}
}

func TestFindBest_SpecificityBeatsConfidence(t *testing.T) {
	rules := []model.Rule{
		approvedRule(1, "AMAZON", model.PatternContains, "Amazon", 0.9),
		approvedRule(2, "AMAZON EU SARL", model.PatternContains, "Amazon EU", 0.5),
	}

	best, ok := FindBest("AMAZON EU SARL PAYMENT", rules)
	require.True(t, ok)
	assert.Equal(t, int64(2), best.ID, "the longer match must win despite lower confidence")
	assert.Equal(t, "Amazon EU", best.Replacement)
}

func TestFindBest_TieBreaks(t *testing.T) {
	tests := []struct {
		name   string
		rules  []model.Rule
		raw    string
		wantID int64
	}{
		{
			name: "equal score falls to confidence",
			rules: []model.Rule{
				approvedRule(1, "netflix", model.PatternContains, "Netflix", 0.6),
				approvedRule(2, "netflix", model.PatternContains, "Netflix Inc", 0.9),
			},
			raw:    "NETFLIX.COM 866-579-7172",
			wantID: 2,
		},
		{
			name: "equal score and confidence falls to success rate",
			rules: []model.Rule{
				{ID: 1, Pattern: "uber", PatternType: model.PatternContains, Replacement: "Uber", Status: model.StatusApproved, Confidence: 0.8, SuccessRate: 0.4},
				{ID: 2, Pattern: "uber", PatternType: model.PatternContains, Replacement: "Uber Rides", Status: model.StatusApproved, Confidence: 0.8, SuccessRate: 0.9},
			},
			raw:    "UBER *TRIP",
			wantID: 2,
		},
		{
			name: "full tie falls to lowest id",
			rules: []model.Rule{
				approvedRule(7, "lyft", model.PatternContains, "Lyft B", 0.8),
				approvedRule(3, "lyft", model.PatternContains, "Lyft A", 0.8),
			},
			raw:    "LYFT *RIDE",
			wantID: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := FindBest(tt.raw, tt.rules)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, best.ID)

			// Same inputs in reverse order must pick the same winner.
			reversed := []model.Rule{tt.rules[1], tt.rules[0]}
			best2, ok := FindBest(tt.raw, reversed)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, best2.ID)
		})
	}
}

func TestFindBest_OnlyApprovedRulesMatch(t *testing.T) {
	pending := approvedRule(1, ".*", model.PatternRegex, "Everything", 1.0)
	pending.Status = model.StatusPending
	rejected := approvedRule(2, "amzn", model.PatternContains, "Amazon", 1.0)
	rejected.Status = model.StatusRejected

	_, ok := FindBest("AMZN MKTP US", []model.Rule{pending, rejected})
	assert.False(t, ok, "pending and rejected rules must be inert")
}

func TestFindBest_NoMatch(t *testing.T) {
	rules := []model.Rule{
		approvedRule(1, "starbucks", model.PatternContains, "Starbucks", 0.9),
	}

	_, ok := FindBest("SHELL OIL 57444", rules)
	assert.False(t, ok)

	_, ok = FindBest("anything", nil)
	assert.False(t, ok)
}

func TestFindBest_RoundTripHumanRule(t *testing.T) {
	rule, err := model.NewHumanRule("STARBUCKS", model.PatternContains, "Starbucks")
	require.NoError(t, err)
	rule.ID = 1

	best, ok := FindBest("I bought STARBUCKS coffee", []model.Rule{rule})
	require.True(t, ok)
	assert.Equal(t, "Starbucks", best.Replacement)
}

func TestFindAll(t *testing.T) {
	rules := []model.Rule{
		approvedRule(1, "AMAZON", model.PatternContains, "Amazon", 0.9),
		approvedRule(2, "AMAZON EU SARL", model.PatternContains, "Amazon EU", 0.5),
		approvedRule(3, "netflix", model.PatternContains, "Netflix", 0.9),
	}

	matches := FindAll("AMAZON EU SARL PAYMENT", rules)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(2), matches[0].Rule.ID)
	assert.Equal(t, 14, matches[0].Score)
	assert.Equal(t, int64(1), matches[1].Rule.ID)
	assert.Equal(t, 6, matches[1].Score)
}
