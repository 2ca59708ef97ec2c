package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// RuleReviewer is the slice of the cleanup engine the prompter drives.
type RuleReviewer interface {
	GetPendingRules(ctx context.Context) ([]model.Rule, error)
	ApproveRule(ctx context.Context, id int64, edits *model.RuleEdit) (model.Rule, error)
	RejectRule(ctx context.Context, id int64, reason string) error
}

// ReviewPrompter walks the pending rule queue one rule at a time in the
// terminal. It is the plain fallback for environments where the full-screen
// review UI is unwelcome, such as scripts and dumb terminals.
type ReviewPrompter struct {
	reviewer RuleReviewer
	writer   io.Writer
	reader   *LineReader
	approved int
	rejected int
	skipped  int
}

// NewReviewPrompter creates a review prompter with the given reader and writer.
func NewReviewPrompter(reviewer RuleReviewer, reader io.Reader, writer io.Writer) *ReviewPrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &ReviewPrompter{
		reviewer: reviewer,
		reader:   NewLineReader(reader),
		writer:   writer,
	}
}

// Run reviews every pending rule until the queue is empty or the user quits.
func (p *ReviewPrompter) Run(ctx context.Context) error {
	rules, err := p.reviewer.GetPendingRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending rules: %w", err)
	}

	if len(rules) == 0 {
		_, err = fmt.Fprintln(p.writer, FormatSuccess("No rules waiting for review."))
		return err
	}

	if _, err := fmt.Fprintln(p.writer, FormatTitle(fmt.Sprintf("Reviewing %d pending rules", len(rules)))); err != nil {
		return fmt.Errorf("failed to write review header: %w", err)
	}

	for i, rule := range rules {
		quit, err := p.reviewRule(ctx, i+1, len(rules), rule)
		if err != nil {
			return err
		}
		if quit {
			break
		}
	}

	return p.printSummary()
}

// Stats reports the verdict counts recorded so far.
func (p *ReviewPrompter) Stats() (approved, rejected, skipped int) {
	return p.approved, p.rejected, p.skipped
}

func (p *ReviewPrompter) printSummary() error {
	summary := fmt.Sprintf("%s Review complete: %d approved, %d rejected, %d skipped",
		ChartIcon, p.approved, p.rejected, p.skipped)
	_, err := fmt.Fprintln(p.writer, "\n"+BoldStyle.Render(summary))
	return err
}

// reviewRule shows one rule and applies the user's verdict. It reports
// whether the user asked to stop reviewing.
func (p *ReviewPrompter) reviewRule(ctx context.Context, index, total int, rule model.Rule) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	content := p.formatRule(rule)
	if _, err := fmt.Fprintln(p.writer, RenderBox(fmt.Sprintf("Rule %d of %d", index, total), content)); err != nil {
		return false, fmt.Errorf("failed to write rule box: %w", err)
	}

	options := "  [A] Approve as-is\n" +
		"  [E] Edit, then approve\n" +
		"  [R] Reject\n" +
		"  [S] Skip for now\n" +
		"  [Q] Quit reviewing\n"
	if _, err := fmt.Fprintln(p.writer, options); err != nil {
		return false, fmt.Errorf("failed to write verdict options: %w", err)
	}

	for {
		choice, err := p.promptChoice(ctx, "Verdict", []string{"a", "e", "r", "s", "q"})
		if err != nil {
			return false, err
		}

		switch choice {
		case "a":
			return false, p.approve(ctx, rule, nil)
		case "e":
			edits, err := p.promptEdits(ctx, rule)
			if err != nil {
				return false, err
			}
			err = p.approve(ctx, rule, edits)
			if errors.Is(err, model.ErrInvalidRuleDefinition) {
				if _, werr := fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Edit not applied: %v. The rule is still pending.", err))); werr != nil {
					return false, werr
				}
				continue
			}
			return false, err
		case "r":
			reason, err := p.promptRejectReason(ctx)
			if err != nil {
				return false, err
			}
			return false, p.reject(ctx, rule, reason)
		case "s":
			p.skipped++
			return false, nil
		case "q":
			return true, nil
		}
	}
}

// approve records an approval verdict, applying edits when present. A rule
// already decided by someone else is reported and skipped, not fatal.
func (p *ReviewPrompter) approve(ctx context.Context, rule model.Rule, edits *model.RuleEdit) error {
	approved, err := p.reviewer.ApproveRule(ctx, rule.ID, edits)
	if errors.Is(err, common.ErrInvalidRuleState) {
		_, werr := fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("Rule %d was already decided elsewhere; moving on.", rule.ID)))
		return werr
	}
	if err != nil {
		if errors.Is(err, model.ErrInvalidRuleDefinition) {
			return err
		}
		return fmt.Errorf("failed to approve rule %d: %w", rule.ID, err)
	}

	p.approved++
	_, err = fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf("Approved: %q now cleans to %q", approved.Pattern, approved.Replacement)))
	return err
}

// reject records a rejection verdict with an optional reason.
func (p *ReviewPrompter) reject(ctx context.Context, rule model.Rule, reason string) error {
	err := p.reviewer.RejectRule(ctx, rule.ID, reason)
	if errors.Is(err, common.ErrInvalidRuleState) {
		_, werr := fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("Rule %d was already decided elsewhere; moving on.", rule.ID)))
		return werr
	}
	if err != nil {
		return fmt.Errorf("failed to reject rule %d: %w", rule.ID, err)
	}

	p.rejected++
	_, err = fmt.Fprintln(p.writer, FormatInfo(fmt.Sprintf("Rejected the rule for %q.", rule.Pattern)))
	return err
}

func (p *ReviewPrompter) formatRule(rule model.Rule) string {
	details := fmt.Sprintf("  Pattern: %s\n", BoldStyle.Render(rule.Pattern)) +
		fmt.Sprintf("  Type: %s\n", rule.PatternType) +
		fmt.Sprintf("  Cleans to: %s", SuccessStyle.Render(rule.Replacement))

	origin := fmt.Sprintf("\n\n%s Proposed by %s on %s (%.0f%% confidence)",
		sourceIcon(rule.Source),
		rule.Source,
		rule.CreatedAt.Format("Jan 2, 2006"),
		rule.Confidence*100)

	return details + origin
}

// promptEdits collects replacement values for the rule's definition. Empty
// answers keep the stored value.
func (p *ReviewPrompter) promptEdits(ctx context.Context, rule model.Rule) (*model.RuleEdit, error) {
	if _, err := fmt.Fprintln(p.writer, FormatInfo("Press enter to keep the current value.")); err != nil {
		return nil, fmt.Errorf("failed to write edit hint: %w", err)
	}

	pattern, err := p.promptLine(ctx, fmt.Sprintf("Pattern [%s]", rule.Pattern))
	if err != nil {
		return nil, err
	}
	patternType, err := p.promptLine(ctx, fmt.Sprintf("Type [%s]", rule.PatternType))
	if err != nil {
		return nil, err
	}
	replacement, err := p.promptLine(ctx, fmt.Sprintf("Cleans to [%s]", rule.Replacement))
	if err != nil {
		return nil, err
	}

	edits := &model.RuleEdit{}
	if pattern != "" {
		edits.Pattern = &pattern
	}
	if patternType != "" {
		pt := model.PatternType(strings.ToUpper(patternType))
		edits.PatternType = &pt
	}
	if replacement != "" {
		edits.Replacement = &replacement
	}

	return edits, nil
}

func (p *ReviewPrompter) promptRejectReason(ctx context.Context) (string, error) {
	return p.promptLine(ctx, "Reason (optional)")
}

// promptChoice keeps asking until the user enters one of validChoices.
func (p *ReviewPrompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := p.promptLine(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (p *ReviewPrompter) promptLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	input, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input terminated")
		}
		return "", err
	}

	return input, nil
}

func sourceIcon(source model.RuleSource) string {
	if source == model.SourceHuman {
		return PersonIcon
	}
	return RobotIcon
}
