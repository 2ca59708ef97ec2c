package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// RecordApplication appends one rule application to the audit trail.
func (s *SQLiteStorage) RecordApplication(ctx context.Context, app *model.RuleApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateApplication(app); err != nil {
		return err
	}

	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}

	query := `
		INSERT INTO rule_applications (rule_id, transaction_ref, applied_at, confirmed)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		app.RuleID, app.TransactionRef, app.AppliedAt, app.Confirmed,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to record application: %v", common.ErrStorageUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: failed to get application ID: %v", common.ErrStorageUnavailable, err)
	}

	app.ID = id
	return nil
}

// ConfirmLatestApplication marks the rule's most recent unconfirmed
// application with the feedback verdict. Returns without error when every
// application already carries a verdict; the rule-level success rate is the
// primary record and it is updated separately.
func (s *SQLiteStorage) ConfirmLatestApplication(ctx context.Context, ruleID int64, confirmed bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `
		UPDATE rule_applications SET confirmed = ?
		WHERE id = (
			SELECT id FROM rule_applications
			WHERE rule_id = ? AND confirmed IS NULL
			ORDER BY applied_at DESC, id DESC
			LIMIT 1
		)
	`

	if _, err := s.db.ExecContext(ctx, query, confirmed, ruleID); err != nil {
		return fmt.Errorf("%w: failed to confirm application: %v", common.ErrStorageUnavailable, err)
	}

	return nil
}

// ListRecentApplications returns the newest applications for a rule.
func (s *SQLiteStorage) ListRecentApplications(ctx context.Context, ruleID int64, limit int) ([]model.RuleApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, rule_id, transaction_ref, applied_at, confirmed
		FROM rule_applications
		WHERE rule_id = ?
		ORDER BY applied_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list applications: %v", common.ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var apps []model.RuleApplication
	for rows.Next() {
		var app model.RuleApplication
		if err := rows.Scan(&app.ID, &app.RuleID, &app.TransactionRef, &app.AppliedAt, &app.Confirmed); err != nil {
			return nil, fmt.Errorf("%w: failed to scan application: %v", common.ErrStorageUnavailable, err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating applications: %v", common.ErrStorageUnavailable, err)
	}

	return apps, nil
}
