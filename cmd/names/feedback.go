package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <rule-id>",
		Short: "Record whether a rule's cleanup was right",
		Long: `Record feedback on a rule's cleanup. Confirmations raise the rule's
success rate; corrections lower it. An approved rule whose rate sinks below
the floor after enough use is demoted automatically and stops applying.

Examples:
  names feedback 12 --correct
  names feedback 12 --incorrect`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedback,
	}

	cmd.Flags().Bool("correct", false, "The cleanup was right")
	cmd.Flags().Bool("incorrect", false, "The cleanup was wrong")
	return cmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseRuleID(args[0])
	if err != nil {
		return err
	}

	correct, _ := cmd.Flags().GetBool("correct")
	incorrect, _ := cmd.Flags().GetBool("incorrect")
	if correct == incorrect {
		return fmt.Errorf("exactly one of --correct or --incorrect is required")
	}

	eng, cleanup, err := newEngine(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	before, err := eng.GetRule(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrRuleNotFound) {
			return fmt.Errorf("rule %d not found", id)
		}
		return fmt.Errorf("failed to get rule: %w", err)
	}

	if err := eng.RecordFeedback(ctx, id, correct); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	after, err := eng.GetRule(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reload rule: %w", err)
	}

	if correct {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Thanks! Rule #%d success rate is now %.0f%%", after.ID, after.SuccessRate*100))) //nolint:forbidigo // User-facing output
	} else {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Noted. Rule #%d success rate is now %.0f%%", after.ID, after.SuccessRate*100))) //nolint:forbidigo // User-facing output
	}

	if before.Status == model.StatusApproved && after.Status == model.StatusRejected {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Rule #%d sank below the success floor and was demoted; it no longer applies", after.ID))) //nolint:forbidigo // User-facing output
	}

	return nil
}
