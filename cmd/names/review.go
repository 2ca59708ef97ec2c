package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/tui"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review pending rule suggestions",
		Long: `Review model-suggested rules waiting for a verdict.

The full-screen UI lets you approve, edit, or reject each suggestion with
single keystrokes. Use --plain for a line-by-line prompt that works in
scripts and over dumb terminals.`,
		RunE: runReview,
	}

	cmd.Flags().Bool("plain", false, "Use the line-based prompter instead of the full-screen UI")
	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	plain, _ := cmd.Flags().GetBool("plain")

	eng, cleanup, err := newEngine(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if plain {
		return runPlainReview(ctx, eng)
	}

	// The full-screen UI handles its own interrupts
	if err := tui.Run(ctx, eng); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("Review interrupted")
			slog.Info("Verdicts already recorded are saved. Resume with: names review")
			return nil
		}
		return fmt.Errorf("review failed: %w", err)
	}

	return nil
}

func runPlainReview(ctx context.Context, reviewer cli.RuleReviewer) error {
	handler := cli.NewInterruptHandler(os.Stdout)
	ctx = handler.HandleInterrupts(ctx, true)

	prompter := cli.NewReviewPrompter(reviewer, os.Stdin, os.Stdout)
	if err := prompter.Run(ctx); err != nil {
		if handler.WasInterrupted() || errors.Is(err, context.Canceled) || errors.Is(err, cli.ErrInputCancelled) {
			return nil
		}
		return fmt.Errorf("review failed: %w", err)
	}

	return nil
}
