package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/importer"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Clean every payee in a transaction CSV",
		Long: `Run bulk payee cleanup over a bank CSV export.

Every row's payee is cleaned with the same rules-first, model-second flow as
'names cleanup'. The output CSV keeps all original columns and adds the
cleaned name plus what produced it. New model suggestions land in the
review queue.`,
		RunE: runImport,
	}

	cmd.Flags().StringP("input", "i", "", "CSV of transactions to clean (required)")
	cmd.Flags().StringP("output", "o", "", "Where to write the cleaned CSV (required)")
	cmd.Flags().IntP("workers", "w", 5, "Concurrent cleanup workers")
	cmd.Flags().Bool("no-llm", false, "Skip the AI model; rely on approved rules only")

	// Bind to viper
	_ = viper.BindPFlag("import.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("import.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("import.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("import.no_llm", cmd.Flags().Lookup("no-llm"))

	if err := cmd.MarkFlagRequired("input"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	if err := cmd.MarkFlagRequired("output"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	inputPath := viper.GetString("import.input")
	outputPath := viper.GetString("import.output")
	workers := viper.GetInt("import.workers")
	noLLM := viper.GetBool("import.no_llm")

	eng, cleanup, err := newEngine(ctx, !noLLM)
	if err != nil {
		return err
	}
	defer cleanup()

	imp := importer.NewWithConfig(eng, importer.Config{
		Progress:   os.Stderr,
		MaxWorkers: workers,
	})

	stats, err := imp.Run(ctx, inputPath, outputPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("Import interrupted; no output was written")
			return nil
		}
		return fmt.Errorf("import failed: %w", err)
	}

	engineStats, err := eng.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	displayImportSummary(stats, engineStats.Synthesis)

	if stats.NewPending > 0 {
		slog.Info(fmt.Sprintf("Review the %d new suggestions with: names review", stats.NewPending))
	}

	return nil
}

func displayImportSummary(stats service.ImportStats, synthesis service.SynthesisStats) {
	content := fmt.Sprintf(`Transactions: %d
Cleaned by rules: %d
Cleaned by AI: %d
Passed through: %d
New pending rules: %d
Duration: %s
`, stats.Total, stats.RuleHits, stats.AICleanups, stats.Passthrough, stats.NewPending,
		stats.Duration.Round(time.Millisecond))

	if synthesis.Calls > 0 {
		content += fmt.Sprintf("\nModel calls: %d (%d cache hits, %d failures)\n",
			synthesis.Calls, synthesis.CacheHits, synthesis.Failures)
	}

	slog.Info(cli.RenderBox("Cleanup Summary", content))
}
