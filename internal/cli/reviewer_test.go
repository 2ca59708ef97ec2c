package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
)

type mockReviewer struct {
	pendingErr error
	approveErr map[int64]error
	rejectErr  map[int64]error
	approvals  map[int64]*model.RuleEdit
	rejections map[int64]string
	pending    []model.Rule
}

func newMockReviewer(rules ...model.Rule) *mockReviewer {
	return &mockReviewer{
		pending:    rules,
		approveErr: make(map[int64]error),
		rejectErr:  make(map[int64]error),
		approvals:  make(map[int64]*model.RuleEdit),
		rejections: make(map[int64]string),
	}
}

func (m *mockReviewer) GetPendingRules(_ context.Context) ([]model.Rule, error) {
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	return m.pending, nil
}

func (m *mockReviewer) ApproveRule(_ context.Context, id int64, edits *model.RuleEdit) (model.Rule, error) {
	if err := m.approveErr[id]; err != nil {
		return model.Rule{}, err
	}
	for _, rule := range m.pending {
		if rule.ID != id {
			continue
		}
		if edits != nil {
			if err := rule.Apply(*edits); err != nil {
				return model.Rule{}, err
			}
		}
		rule.Status = model.StatusApproved
		m.approvals[id] = edits
		return rule, nil
	}
	return model.Rule{}, common.ErrRuleNotFound
}

func (m *mockReviewer) RejectRule(_ context.Context, id int64, reason string) error {
	if err := m.rejectErr[id]; err != nil {
		return err
	}
	m.rejections[id] = reason
	return nil
}

func pendingRule(id int64, pattern, replacement string) model.Rule {
	now := time.Now()
	return model.Rule{
		ID:          id,
		CreatedAt:   now,
		UpdatedAt:   now,
		Pattern:     pattern,
		Replacement: replacement,
		PatternType: model.PatternContains,
		Source:      model.SourceLLM,
		Status:      model.StatusPending,
		Confidence:  0.85,
		SuccessRate: 1.0,
	}
}

func runReview(t *testing.T, reviewer RuleReviewer, input string) (*ReviewPrompter, string) {
	t.Helper()

	var out bytes.Buffer
	prompter := NewReviewPrompter(reviewer, strings.NewReader(input), &out)
	require.NoError(t, prompter.Run(context.Background()))
	return prompter, out.String()
}

func TestReviewPrompter_Approve(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(1, "STARBUCKS", "Starbucks"))

	prompter, output := runReview(t, reviewer, "a\n")

	require.Contains(t, reviewer.approvals, int64(1))
	assert.Nil(t, reviewer.approvals[1])
	assert.Contains(t, output, "Approved")
	assert.Contains(t, output, "Review complete: 1 approved, 0 rejected, 0 skipped")

	approved, rejected, skipped := prompter.Stats()
	assert.Equal(t, 1, approved)
	assert.Equal(t, 0, rejected)
	assert.Equal(t, 0, skipped)
}

func TestReviewPrompter_RejectWithReason(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(7, "AMZN", "Amazon"))

	_, output := runReview(t, reviewer, "r\ntoo broad\n")

	assert.Equal(t, "too broad", reviewer.rejections[7])
	assert.Contains(t, output, "Rejected")
}

func TestReviewPrompter_EditThenApprove(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(3, "BLUE BOTTEL", "Blue Bottel"))

	// Keep the pattern, switch the type, fix the replacement.
	_, output := runReview(t, reviewer, "e\n\nexact\nBlue Bottle Coffee\n")

	require.Contains(t, reviewer.approvals, int64(3))
	edits := reviewer.approvals[3]
	require.NotNil(t, edits)
	assert.Nil(t, edits.Pattern)
	require.NotNil(t, edits.PatternType)
	assert.Equal(t, model.PatternExact, *edits.PatternType)
	require.NotNil(t, edits.Replacement)
	assert.Equal(t, "Blue Bottle Coffee", *edits.Replacement)
	assert.Contains(t, output, "Approved")
}

func TestReviewPrompter_InvalidEditKeepsRulePending(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(4, "CAFE", "Cafe"))

	// A regex that does not compile is refused; approving as-is still works.
	_, output := runReview(t, reviewer, "e\n[unclosed\nregex\n\na\n")

	assert.Contains(t, output, "Edit not applied")
	require.Contains(t, reviewer.approvals, int64(4))
	assert.Nil(t, reviewer.approvals[4])
}

func TestReviewPrompter_SkipAndQuit(t *testing.T) {
	reviewer := newMockReviewer(
		pendingRule(1, "STARBUCKS", "Starbucks"),
		pendingRule(2, "AMZN", "Amazon"),
	)

	prompter, output := runReview(t, reviewer, "s\nq\n")

	assert.Empty(t, reviewer.approvals)
	assert.Empty(t, reviewer.rejections)
	assert.Contains(t, output, "Rule 1 of 2")
	assert.Contains(t, output, "Rule 2 of 2")

	_, _, skipped := prompter.Stats()
	assert.Equal(t, 1, skipped)
}

func TestReviewPrompter_InvalidChoiceReprompts(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(1, "STARBUCKS", "Starbucks"))

	_, output := runReview(t, reviewer, "x\na\n")

	assert.Contains(t, output, "Invalid choice")
	assert.Contains(t, reviewer.approvals, int64(1))
}

func TestReviewPrompter_EmptyQueue(t *testing.T) {
	reviewer := newMockReviewer()

	_, output := runReview(t, reviewer, "")

	assert.Contains(t, output, "No rules waiting for review")
}

func TestReviewPrompter_ConcurrentDecisionIsNotFatal(t *testing.T) {
	reviewer := newMockReviewer(pendingRule(1, "STARBUCKS", "Starbucks"))
	reviewer.approveErr[1] = common.ErrInvalidRuleState

	prompter, output := runReview(t, reviewer, "a\n")

	assert.Contains(t, output, "already decided elsewhere")
	approved, _, _ := prompter.Stats()
	assert.Equal(t, 0, approved)
}

func TestReviewPrompter_ListErrorPropagates(t *testing.T) {
	reviewer := newMockReviewer()
	reviewer.pendingErr = common.ErrStorageUnavailable

	var out bytes.Buffer
	prompter := NewReviewPrompter(reviewer, strings.NewReader(""), &out)

	err := prompter.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}
