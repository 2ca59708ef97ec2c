// Package storage provides the data persistence layer for the names application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid application record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a rule before it is written.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	return rule.Validate()
}

// validateApplication validates a rule application record.
func validateApplication(app *model.RuleApplication) error {
	if app == nil {
		return fmt.Errorf("%w: application", ErrNilParameter)
	}
	if app.RuleID <= 0 {
		return fmt.Errorf("%w: missing rule id", ErrInvalidRecord)
	}
	if strings.TrimSpace(app.TransactionRef) == "" {
		return fmt.Errorf("%w: missing transaction ref", ErrInvalidRecord)
	}
	return nil
}
