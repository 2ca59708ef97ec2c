package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/spf13/cobra"
)

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup <payee>",
		Short: "Clean a single raw payee string",
		Long: `Clean a single raw payee string into a human-readable name.

Approved rules are tried first; the most specific match wins. If nothing
matches, the payee goes to the AI model and its suggestion is saved as a
draft rule for review. Worst case, the raw payee passes through unchanged.

Examples:
  names cleanup "SQ *BLUE BOTTLE COFF 0042 OAKLAND CA"
  names cleanup "AMZN MKTP US*2K4XY" --ref txn-2024-0117
  names cleanup "ACH HOLD 7729" --context amount=42.17 --context date=2024-01-17
  names cleanup "PAYPAL *GRUBHUB" --no-llm`,
		Args: cobra.ExactArgs(1),
		RunE: runCleanup,
	}

	cmd.Flags().StringP("ref", "r", "", "Transaction reference to tie the cleanup to")
	cmd.Flags().StringArrayP("context", "c", nil, "Transaction context as key=value (repeatable)")
	cmd.Flags().Bool("no-llm", false, "Skip the AI model; rely on approved rules only")

	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rawPayee := args[0]

	ref, _ := cmd.Flags().GetString("ref")
	pairs, _ := cmd.Flags().GetStringArray("context")
	noLLM, _ := cmd.Flags().GetBool("no-llm")

	txnContext, err := parseContextPairs(pairs)
	if err != nil {
		return err
	}

	eng, cleanup, err := newEngine(ctx, !noLLM)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := eng.Cleanup(ctx, rawPayee, ref, txnContext)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	printCleanupResult(rawPayee, result)
	return nil
}

// parseContextPairs turns repeated key=value flags into a context map.
func parseContextPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	txnContext := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid context pair %q (expected key=value)", pair)
		}
		txnContext[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return txnContext, nil
}

func printCleanupResult(rawPayee string, result model.CleanupResult) {
	fmt.Println(cli.SubtleStyle.Render(rawPayee))            //nolint:forbidigo // User-facing output
	fmt.Printf("→ %s\n", cli.BoldStyle.Render(result.Cleaned)) //nolint:forbidigo // User-facing output
	fmt.Println()                                            //nolint:forbidigo // User-facing output

	switch result.CleanedBy {
	case model.CleanedByRule:
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Matched rule #%d", *result.AppliedRuleID))) //nolint:forbidigo // User-facing output
	case model.CleanedByAI:
		fmt.Println(cli.FormatInfo(fmt.Sprintf("%s Suggested by the model", cli.RobotIcon))) //nolint:forbidigo // User-facing output
		if result.GeneratedRuleID != nil {
			fmt.Println(cli.FormatInfo(fmt.Sprintf("Draft rule #%d awaits review: run 'names review'", *result.GeneratedRuleID))) //nolint:forbidigo // User-facing output
		}
	case model.CleanedByNone:
		fmt.Println(cli.FormatWarning("No rule matched and no suggestion was available; passed through unchanged")) //nolint:forbidigo // User-facing output
	}
}
