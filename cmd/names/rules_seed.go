package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ruleSeed is the portable YAML form of a rule. Only the definition
// travels; counters and review state stay home.
type ruleSeed struct {
	Pattern     string `yaml:"pattern"`
	Type        string `yaml:"type"`
	Replacement string `yaml:"replacement"`
}

// seedFile is the on-disk layout of an exported rule set.
type seedFile struct {
	Rules []ruleSeed `yaml:"rules"`
}

func rulesExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export approved rules to a YAML file",
		Long: `Export the approved rule set to a YAML file. The export carries only the
rule definitions, so it can seed another database or live in version control.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			outputPath, _ := cmd.Flags().GetString("output")

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			status := model.StatusApproved
			rules, err := eng.ListRules(ctx, service.RuleFilter{Status: &status})
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			seeds := seedFile{Rules: make([]ruleSeed, 0, len(rules))}
			for _, rule := range rules {
				seeds.Rules = append(seeds.Rules, ruleSeed{
					Pattern:     rule.Pattern,
					Type:        string(rule.PatternType),
					Replacement: rule.Replacement,
				})
			}

			data, err := yaml.Marshal(&seeds)
			if err != nil {
				return fmt.Errorf("failed to marshal rules: %w", err)
			}

			if dir := filepath.Dir(outputPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := os.WriteFile(outputPath, data, 0o600); err != nil {
				return fmt.Errorf("failed to write rules file: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d approved rules to %s", len(seeds.Rules), outputPath))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "rules.yaml", "Path to write the rule set to")
	return cmd
}

func rulesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import rules from a YAML file",
		Long: `Import rule definitions from a YAML file produced by 'names rules export'.
Imported rules count as human-authored and become active immediately.
Rules whose pattern and type already exist are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			inputPath, _ := cmd.Flags().GetString("input")

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read rules file: %w", err)
			}

			var seeds seedFile
			if err := yaml.Unmarshal(data, &seeds); err != nil {
				return fmt.Errorf("failed to parse rules file: %w", err)
			}

			if len(seeds.Rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules to import.")) //nolint:forbidigo // User-facing output
				return nil
			}

			eng, cleanup, err := newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			existing, err := eng.ListRules(ctx, service.RuleFilter{})
			if err != nil {
				return fmt.Errorf("failed to list existing rules: %w", err)
			}
			known := make(map[string]bool, len(existing))
			for _, rule := range existing {
				known[seedKey(rule.PatternType, rule.Pattern)] = true
			}

			imported, skipped := 0, 0
			for _, seed := range seeds.Rules {
				patternType, parseErr := parsePatternType(seed.Type)
				if parseErr != nil {
					return fmt.Errorf("rule %q: %w", seed.Pattern, parseErr)
				}

				if known[seedKey(patternType, seed.Pattern)] {
					skipped++
					continue
				}

				rule, createErr := eng.CreateRule(ctx, seed.Pattern, patternType, seed.Replacement)
				if createErr != nil {
					if errors.Is(createErr, model.ErrInvalidRuleDefinition) {
						return fmt.Errorf("rule %q: %w", seed.Pattern, createErr)
					}
					return fmt.Errorf("failed to import rule %q: %w", seed.Pattern, createErr)
				}

				known[seedKey(rule.PatternType, rule.Pattern)] = true
				imported++
			}

			slog.Info("rule import complete", "imported", imported, "skipped", skipped)
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d rules (%d already present)", imported, skipped))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path of the rule set to import (required)")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

// seedKey identifies a rule by type and case-insensitive pattern.
func seedKey(patternType model.PatternType, pattern string) string {
	return string(patternType) + "\x00" + strings.ToLower(pattern)
}
