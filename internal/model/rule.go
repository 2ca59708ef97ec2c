// Package model defines the core data structures for the names application.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidRuleDefinition is returned when a rule's pattern, type,
// replacement, or confidence fails validation.
var ErrInvalidRuleDefinition = errors.New("invalid rule definition")

// PatternType determines how a rule's pattern is evaluated against a payee.
type PatternType string

// Pattern type constants.
const (
	PatternExact      PatternType = "EXACT"
	PatternContains   PatternType = "CONTAINS"
	PatternStartsWith PatternType = "STARTS_WITH"
	PatternRegex      PatternType = "REGEX"
)

// RuleSource indicates how a rule was created.
type RuleSource string

const (
	// SourceHuman indicates the rule was authored by an operator.
	SourceHuman RuleSource = "HUMAN"
	// SourceLLM indicates the rule was synthesized from a model response.
	SourceLLM RuleSource = "LLM"
)

// RuleStatus tracks a rule through the review lifecycle.
type RuleStatus string

const (
	// StatusPending indicates a synthesized rule awaiting review.
	StatusPending RuleStatus = "PENDING"
	// StatusApproved indicates the rule participates in cleanup.
	StatusApproved RuleStatus = "APPROVED"
	// StatusRejected is terminal; rejected rules are kept for audit only.
	StatusRejected RuleStatus = "REJECTED"
)

// Rule maps a payee pattern to a canonical replacement name.
type Rule struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Pattern      string
	Replacement  string
	RejectReason string
	PatternType  PatternType
	Source       RuleSource
	Status       RuleStatus
	ID           int64
	Confidence   float64
	SuccessRate  float64
	UseCount     int64
}

// RuleEdit carries optional reviewer corrections applied during approval.
// Nil fields leave the stored value unchanged.
type RuleEdit struct {
	Pattern     *string
	PatternType *PatternType
	Replacement *string
}

// NewHumanRule creates an operator-authored rule. Human rules are trusted:
// they start approved with full confidence.
func NewHumanRule(pattern string, patternType PatternType, replacement string) (Rule, error) {
	if err := validateDefinition(pattern, patternType, replacement, 1.0); err != nil {
		return Rule{}, err
	}
	now := time.Now()
	return Rule{
		CreatedAt:   now,
		UpdatedAt:   now,
		Pattern:     pattern,
		Replacement: replacement,
		PatternType: patternType,
		Source:      SourceHuman,
		Status:      StatusApproved,
		Confidence:  1.0,
		SuccessRate: 1.0,
	}, nil
}

// NewSuggestedRule creates a synthesized rule awaiting review.
func NewSuggestedRule(pattern string, patternType PatternType, replacement string, confidence float64) (Rule, error) {
	if err := validateDefinition(pattern, patternType, replacement, confidence); err != nil {
		return Rule{}, err
	}
	now := time.Now()
	return Rule{
		CreatedAt:   now,
		UpdatedAt:   now,
		Pattern:     pattern,
		Replacement: replacement,
		PatternType: patternType,
		Source:      SourceLLM,
		Status:      StatusPending,
		Confidence:  confidence,
		SuccessRate: 1.0,
	}, nil
}

// Validate ensures the rule definition is well-formed. It checks the same
// constraints the constructors enforce, so edited rules go through it again
// before persisting.
func (r *Rule) Validate() error {
	return validateDefinition(r.Pattern, r.PatternType, r.Replacement, r.Confidence)
}

// IsActive reports whether the rule participates in cleanup matching.
func (r *Rule) IsActive() bool {
	return r.Status == StatusApproved
}

// Apply applies a reviewer's edits to the rule and revalidates it.
func (r *Rule) Apply(edit RuleEdit) error {
	if edit.Pattern != nil {
		r.Pattern = *edit.Pattern
	}
	if edit.PatternType != nil {
		r.PatternType = *edit.PatternType
	}
	if edit.Replacement != nil {
		r.Replacement = *edit.Replacement
	}
	return r.Validate()
}

// CompilePattern compiles a REGEX rule pattern. Matching is case-insensitive
// unless the pattern sets its own flags.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func validateDefinition(pattern string, patternType PatternType, replacement string, confidence float64) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidRuleDefinition)
	}
	if strings.TrimSpace(replacement) == "" {
		return fmt.Errorf("%w: replacement is required", ErrInvalidRuleDefinition)
	}
	switch patternType {
	case PatternExact, PatternContains, PatternStartsWith:
	case PatternRegex:
		if _, err := CompilePattern(pattern); err != nil {
			return fmt.Errorf("%w: pattern does not compile: %v", ErrInvalidRuleDefinition, err)
		}
	default:
		return fmt.Errorf("%w: unknown pattern type %q", ErrInvalidRuleDefinition, patternType)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRuleDefinition)
	}
	return nil
}
