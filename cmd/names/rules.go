package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage payee cleanup rules",
		Long: `View, create, and manage payee cleanup rules.

Rules map a raw payee pattern to a clean name. Human-created rules are
active immediately; model-suggested rules wait in the review queue until
approved.`,
	}

	// Subcommands
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesShowCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesApproveCmd())
	cmd.AddCommand(rulesRejectCmd())
	cmd.AddCommand(rulesTestCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesImportCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cleanup rules",
		Long:  `List cleanup rules with their status, confidence, and usage statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			// Get filter flags
			statusFlag, _ := cmd.Flags().GetString("status")
			sourceFlag, _ := cmd.Flags().GetString("source")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := service.RuleFilter{Limit: limit}
			if statusFlag != "" && statusFlag != "all" {
				status, parseErr := parseStatusFlag(statusFlag)
				if parseErr != nil {
					return parseErr
				}
				filter.Status = &status
			}
			if sourceFlag != "" {
				source, parseErr := parseSourceFlag(sourceFlag)
				if parseErr != nil {
					return parseErr
				}
				filter.Source = &source
			}

			rules, err := eng.ListRules(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'names rules create' to add one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			// Display rules in a table
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tPATTERN\tCLEANS TO\tSOURCE\tCONF\tSUCCESS\tUSES")
			_, _ = fmt.Fprintln(w, "──\t──────\t────\t───────\t─────────\t──────\t────\t───────\t────")

			for _, rule := range rules {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.0f%%\t%.0f%%\t%d\n",
					rule.ID,
					rule.Status,
					rule.PatternType,
					truncateString(rule.Pattern, 30),
					truncateString(rule.Replacement, 24),
					rule.Source,
					rule.Confidence*100,
					rule.SuccessRate*100,
					rule.UseCount)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringP("status", "s", "all", "Filter by status (pending, approved, rejected, all)")
	cmd.Flags().String("source", "", "Filter by source (human, llm)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of rules to show (0 = all)")
	return cmd
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show rule details",
		Long:  `Display detailed information about a specific cleanup rule.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := eng.GetRule(ctx, id)
			if err != nil {
				if errors.Is(err, common.ErrRuleNotFound) {
					return fmt.Errorf("rule %d not found", id)
				}
				return fmt.Errorf("failed to get rule: %w", err)
			}

			// Display rule details
			slog.Info("Rule Details:")
			slog.Info("  ID", "id", rule.ID)
			slog.Info("  Pattern", "pattern", rule.Pattern, "type", rule.PatternType)
			slog.Info("  Cleans To", "replacement", rule.Replacement)
			slog.Info("  Status", "status", rule.Status)
			slog.Info("  Source", "source", rule.Source)
			slog.Info("  Confidence", "confidence", fmt.Sprintf("%.0f%%", rule.Confidence*100))
			slog.Info("  Success Rate", "rate", fmt.Sprintf("%.0f%%", rule.SuccessRate*100))
			slog.Info("  Use Count", "count", rule.UseCount)
			if rule.RejectReason != "" {
				slog.Info("  Reject Reason", "reason", rule.RejectReason)
			}
			slog.Info("  Created", "date", rule.CreatedAt.Format("2006-01-02 15:04:05"))
			slog.Info("  Updated", "date", rule.UpdatedAt.Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a cleanup rule",
		Long: `Create a new cleanup rule. Rules you create by hand are trusted and
become active immediately; no review needed.

Examples:
  names rules create --pattern "SQ *BLUE BOTTLE" --replacement "Blue Bottle Coffee"
  names rules create --pattern "^AMZN (MKTP|Prime)" --type regex --replacement "Amazon"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			patternText, _ := cmd.Flags().GetString("pattern")
			typeFlag, _ := cmd.Flags().GetString("type")
			replacement, _ := cmd.Flags().GetString("replacement")

			patternType, err := parsePatternType(typeFlag)
			if err != nil {
				return err
			}

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := eng.CreateRule(ctx, patternText, patternType, replacement)
			if err != nil {
				if errors.Is(err, model.ErrInvalidRuleDefinition) {
					return err
				}
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule #%d created: %q cleans to %q", rule.ID, rule.Pattern, rule.Replacement))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringP("pattern", "p", "", "Pattern to match against raw payees (required)")
	cmd.Flags().StringP("type", "t", "contains", "Pattern type (exact, contains, starts_with, regex)")
	cmd.Flags().StringP("replacement", "r", "", "Clean name the rule produces (required)")

	if err := cmd.MarkFlagRequired("pattern"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	if err := cmd.MarkFlagRequired("replacement"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

func rulesApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending rule",
		Long: `Approve a pending rule, optionally editing it first. An edited rule is
validated the same way a newly created rule is before the approval lands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}

			// Collect edits if any edit flags were set
			var edits *model.RuleEdit
			if cmd.Flags().Changed("pattern") || cmd.Flags().Changed("type") || cmd.Flags().Changed("replacement") {
				edits = &model.RuleEdit{}

				if cmd.Flags().Changed("pattern") {
					pattern, _ := cmd.Flags().GetString("pattern")
					edits.Pattern = &pattern
				}
				if cmd.Flags().Changed("type") {
					typeFlag, _ := cmd.Flags().GetString("type")
					patternType, parseErr := parsePatternType(typeFlag)
					if parseErr != nil {
						return parseErr
					}
					edits.PatternType = &patternType
				}
				if cmd.Flags().Changed("replacement") {
					replacement, _ := cmd.Flags().GetString("replacement")
					edits.Replacement = &replacement
				}
			}

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := eng.ApproveRule(ctx, id, edits)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrRuleNotFound):
					return fmt.Errorf("rule %d not found", id)
				case errors.Is(err, common.ErrInvalidRuleState):
					return fmt.Errorf("rule %d is not pending review", id)
				case errors.Is(err, model.ErrInvalidRuleDefinition):
					return err
				}
				return fmt.Errorf("failed to approve rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule #%d approved: %q cleans to %q", rule.ID, rule.Pattern, rule.Replacement))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringP("pattern", "p", "", "Replace the rule's pattern before approving")
	cmd.Flags().StringP("type", "t", "", "Replace the rule's pattern type before approving")
	cmd.Flags().StringP("replacement", "r", "", "Replace the rule's clean name before approving")

	return cmd
}

func rulesRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending rule",
		Long:  `Reject a pending rule so it never applies. The reason is kept for the record.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}

			reason, _ := cmd.Flags().GetString("reason")

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.RejectRule(ctx, id, reason); err != nil {
				switch {
				case errors.Is(err, common.ErrRuleNotFound):
					return fmt.Errorf("rule %d not found", id)
				case errors.Is(err, common.ErrInvalidRuleState):
					return fmt.Errorf("rule %d is not pending review", id)
				}
				return fmt.Errorf("failed to reject rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule #%d rejected", id))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().String("reason", "", "Why the rule was rejected")
	return cmd
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <payee>",
		Short: "Test which rules match a payee",
		Long: `Show every approved rule that matches a raw payee, most specific first.
The first row is the rule the engine would apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rawPayee := args[0]

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			matches, err := eng.FindMatchingRules(ctx, rawPayee)
			if err != nil {
				return fmt.Errorf("failed to match rules: %w", err)
			}

			if len(matches) == 0 {
				fmt.Println(cli.InfoStyle.Render("No approved rules match this payee.")) //nolint:forbidigo // User-facing output
				return nil
			}

			winner := matches[0]
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule #%d wins: %q", winner.Rule.ID, winner.Rule.Replacement))) //nolint:forbidigo // User-facing output
			fmt.Println()                                                                                             //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tSCORE\tTYPE\tPATTERN\tCLEANS TO\tCONF\tSUCCESS")
			_, _ = fmt.Fprintln(w, "──\t─────\t────\t───────\t─────────\t────\t───────")

			for _, match := range matches {
				_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.0f%%\t%.0f%%\n",
					match.Rule.ID,
					match.Score,
					match.Rule.PatternType,
					truncateString(match.Rule.Pattern, 30),
					truncateString(match.Rule.Replacement, 24),
					match.Rule.Confidence*100,
					match.Rule.SuccessRate*100)
			}

			return w.Flush()
		},
	}
}

// Helper functions

func parseRuleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule ID: %s", arg)
	}
	return id, nil
}

func parsePatternType(value string) (model.PatternType, error) {
	switch patternType := model.PatternType(strings.ToUpper(value)); patternType {
	case model.PatternExact, model.PatternContains, model.PatternStartsWith, model.PatternRegex:
		return patternType, nil
	default:
		return "", fmt.Errorf("invalid pattern type: %s (valid: exact, contains, starts_with, regex)", value)
	}
}

func parseStatusFlag(value string) (model.RuleStatus, error) {
	switch status := model.RuleStatus(strings.ToUpper(value)); status {
	case model.StatusPending, model.StatusApproved, model.StatusRejected:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status: %s (valid: pending, approved, rejected, all)", value)
	}
}

func parseSourceFlag(value string) (model.RuleSource, error) {
	switch source := model.RuleSource(strings.ToUpper(value)); source {
	case model.SourceHuman, model.SourceLLM:
		return source, nil
	default:
		return "", fmt.Errorf("invalid source: %s (valid: human, llm)", value)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
