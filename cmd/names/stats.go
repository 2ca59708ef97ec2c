package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/engine"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rule corpus statistics",
		Long:  `Show how the rule corpus is doing: counts by status and the rules earning their keep.`,
		RunE:  runStats,
	}

	cmd.Flags().IntP("top", "t", 5, "How many most-used rules to show")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	top, _ := cmd.Flags().GetInt("top")

	eng, cleanup, err := newEngine(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := eng.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	total := stats.Rules.Pending + stats.Rules.Approved + stats.Rules.Rejected

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Rule Corpus", cli.ChartIcon))) //nolint:forbidigo // User-facing output
	fmt.Println()                                                              //nolint:forbidigo // User-facing output
	fmt.Printf("  Total rules: %d\n", total)                                   //nolint:forbidigo // User-facing output
	fmt.Printf("  %s Approved: %d\n", cli.SuccessIcon, stats.Rules.Approved)   //nolint:forbidigo // User-facing output
	fmt.Printf("  %s Pending: %d\n", cli.PendingIcon, stats.Rules.Pending)     //nolint:forbidigo // User-facing output
	fmt.Printf("  %s Rejected: %d\n", cli.ErrorIcon, stats.Rules.Rejected)     //nolint:forbidigo // User-facing output

	if stats.Synthesis.Calls > 0 {
		fmt.Printf("\n  Model calls this session: %d (%d cache hits, %d failures)\n", //nolint:forbidigo // User-facing output
			stats.Synthesis.Calls, stats.Synthesis.CacheHits, stats.Synthesis.Failures)
	}

	if err := printTopRules(cmd, eng, top); err != nil {
		return err
	}

	if stats.Rules.Pending > 0 {
		fmt.Println()                                                                                                        //nolint:forbidigo // User-facing output
		fmt.Println(cli.FormatInfo(fmt.Sprintf("%d suggestions await review: run 'names review'", stats.Rules.Pending))) //nolint:forbidigo // User-facing output
	}

	return nil
}

func printTopRules(cmd *cobra.Command, eng *engine.CleanupEngine, top int) error {
	ctx := cmd.Context()

	status := model.StatusApproved
	rules, err := eng.ListRules(ctx, service.RuleFilter{Status: &status})
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	// Rank by usage, dropping rules that never fired
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].UseCount > rules[j].UseCount
	})

	topRules := make([]model.Rule, 0, top)
	for _, rule := range rules {
		if rule.UseCount == 0 {
			break
		}
		topRules = append(topRules, rule)
		if len(topRules) == top {
			break
		}
	}

	if len(topRules) == 0 {
		return nil
	}

	fmt.Println()                                         //nolint:forbidigo // User-facing output
	fmt.Println(cli.BoldStyle.Render("  Most used rules")) //nolint:forbidigo // User-facing output

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  ID\tPATTERN\tCLEANS TO\tUSES\tSUCCESS")

	for _, rule := range topRules {
		_, _ = fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t%.0f%%\n",
			rule.ID,
			truncateString(rule.Pattern, 30),
			truncateString(rule.Replacement, 24),
			rule.UseCount,
			rule.SuccessRate*100)
	}

	return w.Flush()
}
