package model

import (
	"errors"
	"testing"
)

func TestNewHumanRule(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		replacement string
		patternType PatternType
		wantErr     bool
	}{
		{
			name:        "valid exact rule",
			pattern:     "AMZN MKTP US",
			patternType: PatternExact,
			replacement: "Amazon",
			wantErr:     false,
		},
		{
			name:        "valid contains rule",
			pattern:     "starbucks",
			patternType: PatternContains,
			replacement: "Starbucks",
			wantErr:     false,
		},
		{
			name:        "valid regex rule",
			pattern:     `^PAYPAL \*\w+`,
			patternType: PatternRegex,
			replacement: "PayPal",
			wantErr:     false,
		},
		{
			name:        "empty pattern",
			pattern:     "",
			patternType: PatternExact,
			replacement: "Amazon",
			wantErr:     true,
		},
		{
			name:        "whitespace pattern",
			pattern:     "   ",
			patternType: PatternContains,
			replacement: "Amazon",
			wantErr:     true,
		},
		{
			name:        "empty replacement",
			pattern:     "AMZN",
			patternType: PatternContains,
			replacement: "",
			wantErr:     true,
		},
		{
			name:        "unknown pattern type",
			pattern:     "AMZN",
			patternType: PatternType("FUZZY"),
			replacement: "Amazon",
			wantErr:     true,
		},
		{
			name:        "malformed regex",
			pattern:     "AMZN[",
			patternType: PatternRegex,
			replacement: "Amazon",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewHumanRule(tt.pattern, tt.patternType, tt.replacement)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewHumanRule() error = nil, want error")
				}
				if !errors.Is(err, ErrInvalidRuleDefinition) {
					t.Errorf("NewHumanRule() error = %v, want ErrInvalidRuleDefinition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHumanRule() error = %v, want nil", err)
			}
			if rule.Source != SourceHuman {
				t.Errorf("Source = %v, want %v", rule.Source, SourceHuman)
			}
			if rule.Status != StatusApproved {
				t.Errorf("Status = %v, want %v", rule.Status, StatusApproved)
			}
			if rule.Confidence != 1.0 {
				t.Errorf("Confidence = %v, want 1.0", rule.Confidence)
			}
			if rule.SuccessRate != 1.0 {
				t.Errorf("SuccessRate = %v, want 1.0", rule.SuccessRate)
			}
		})
	}
}

func TestNewSuggestedRule(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		confidence float64
		wantErr    bool
	}{
		{name: "valid confidence", pattern: "AMZN", confidence: 0.85, wantErr: false},
		{name: "confidence zero", pattern: "AMZN", confidence: 0, wantErr: false},
		{name: "confidence one", pattern: "AMZN", confidence: 1, wantErr: false},
		{name: "confidence negative", pattern: "AMZN", confidence: -0.1, wantErr: true},
		{name: "confidence above one", pattern: "AMZN", confidence: 1.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewSuggestedRule(tt.pattern, PatternContains, "Amazon", tt.confidence)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRuleDefinition) {
					t.Errorf("NewSuggestedRule() error = %v, want ErrInvalidRuleDefinition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSuggestedRule() error = %v, want nil", err)
			}
			if rule.Source != SourceLLM {
				t.Errorf("Source = %v, want %v", rule.Source, SourceLLM)
			}
			if rule.Status != StatusPending {
				t.Errorf("Status = %v, want %v", rule.Status, StatusPending)
			}
			if rule.SuccessRate != 1.0 {
				t.Errorf("SuccessRate = %v, want 1.0", rule.SuccessRate)
			}
		})
	}
}

func TestRule_Apply(t *testing.T) {
	rule, err := NewSuggestedRule("AMZN", PatternContains, "Amazon", 0.8)
	if err != nil {
		t.Fatalf("NewSuggestedRule() error = %v", err)
	}

	t.Run("edit replacement only", func(t *testing.T) {
		edited := rule
		if err := edited.Apply(RuleEdit{Replacement: strPtr("Amazon.com")}); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if edited.Replacement != "Amazon.com" {
			t.Errorf("Replacement = %q, want %q", edited.Replacement, "Amazon.com")
		}
		if edited.Pattern != "AMZN" {
			t.Errorf("Pattern = %q, want unchanged", edited.Pattern)
		}
	})

	t.Run("edit to malformed regex fails", func(t *testing.T) {
		edited := rule
		badType := PatternRegex
		err := edited.Apply(RuleEdit{Pattern: strPtr("AMZN["), PatternType: &badType})
		if !errors.Is(err, ErrInvalidRuleDefinition) {
			t.Errorf("Apply() error = %v, want ErrInvalidRuleDefinition", err)
		}
	})

	t.Run("edit to empty replacement fails", func(t *testing.T) {
		edited := rule
		err := edited.Apply(RuleEdit{Replacement: strPtr("")})
		if !errors.Is(err, ErrInvalidRuleDefinition) {
			t.Errorf("Apply() error = %v, want ErrInvalidRuleDefinition", err)
		}
	})
}

func TestCompilePattern(t *testing.T) {
	t.Run("case insensitive by default", func(t *testing.T) {
		re, err := CompilePattern("amazon")
		if err != nil {
			t.Fatalf("CompilePattern() error = %v", err)
		}
		if !re.MatchString("AMAZON EU SARL") {
			t.Error("expected case-insensitive match")
		}
	})

	t.Run("explicit flags preserved", func(t *testing.T) {
		re, err := CompilePattern("(?s)amazon.*")
		if err != nil {
			t.Fatalf("CompilePattern() error = %v", err)
		}
		if re.MatchString("AMAZON") {
			t.Error("pattern with its own flags should stay case-sensitive")
		}
	})
}

func strPtr(s string) *string {
	return &s
}
