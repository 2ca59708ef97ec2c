package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/service"
)

const ruleColumns = `id, pattern, pattern_type, replacement, confidence,
	source, status, reject_reason, use_count, success_rate, created_at, updated_at`

// scanRule reads one rule row. The scanner abstraction covers both
// sql.Row and sql.Rows.
func scanRule(scan func(...any) error) (model.Rule, error) {
	var rule model.Rule
	err := scan(
		&rule.ID, &rule.Pattern, &rule.PatternType, &rule.Replacement, &rule.Confidence,
		&rule.Source, &rule.Status, &rule.RejectReason, &rule.UseCount, &rule.SuccessRate,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	return rule, err
}

// InsertRule persists a new rule and returns its assigned id.
func (s *SQLiteStorage) InsertRule(ctx context.Context, rule *model.Rule) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRule(rule); err != nil {
		return 0, err
	}

	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `
		INSERT INTO rules (
			pattern, pattern_type, replacement, confidence,
			source, status, reject_reason, use_count, success_rate,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Pattern, rule.PatternType, rule.Replacement, rule.Confidence,
		rule.Source, rule.Status, rule.RejectReason, rule.UseCount, rule.SuccessRate,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert rule: %v", common.ErrStorageUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rule ID: %v", common.ErrStorageUnavailable, err)
	}

	rule.ID = id
	return id, nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = ?`

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", common.ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get rule: %v", common.ErrStorageUnavailable, err)
	}

	return &rule, nil
}

// ListActiveRules retrieves all approved rules ordered by id.
func (s *SQLiteStorage) ListActiveRules(ctx context.Context) ([]model.Rule, error) {
	return s.listByStatus(ctx, model.StatusApproved)
}

// ListPendingRules retrieves the review queue in submission order.
func (s *SQLiteStorage) ListPendingRules(ctx context.Context) ([]model.Rule, error) {
	return s.listByStatus(ctx, model.StatusPending)
}

func (s *SQLiteStorage) listByStatus(ctx context.Context, status model.RuleStatus) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM rules WHERE status = ? ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list rules: %v", common.ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

// ListRules retrieves rules matching the filter, newest first.
func (s *SQLiteStorage) ListRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, *filter.Source)
	}

	query := `SELECT ` + ruleColumns + ` FROM rules`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list rules: %v", common.ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]model.Rule, error) {
	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan rule: %v", common.ErrStorageUnavailable, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rules: %v", common.ErrStorageUnavailable, err)
	}

	return rules, nil
}

// UpdateRule applies mutate to the current row inside a single write
// transaction, so read-modify-write sequences on success_rate and status
// never interleave. The mutation's own errors pass through unwrapped.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, id int64, mutate func(*model.Rule) error) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if mutate == nil {
		return nil, fmt.Errorf("%w: mutate", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", common.ErrStorageUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = ?`
	rule, err := scanRule(tx.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", common.ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get rule: %v", common.ErrStorageUnavailable, err)
	}

	if err := mutate(&rule); err != nil {
		return nil, err
	}
	rule.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, `
		UPDATE rules SET
			pattern = ?, pattern_type = ?, replacement = ?, confidence = ?,
			status = ?, reject_reason = ?, success_rate = ?, updated_at = ?
		WHERE id = ?`,
		rule.Pattern, rule.PatternType, rule.Replacement, rule.Confidence,
		rule.Status, rule.RejectReason, rule.SuccessRate, rule.UpdatedAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update rule: %v", common.ErrStorageUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows affected: %v", common.ErrStorageUnavailable, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %d", common.ErrRuleNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit rule update: %v", common.ErrStorageUnavailable, err)
	}

	return &rule, nil
}

// IncrementRuleUseCount bumps use_count atomically at the SQL level so
// concurrent engines never lose updates.
func (s *SQLiteStorage) IncrementRuleUseCount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `UPDATE rules SET use_count = use_count + 1 WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: failed to increment rule use count: %v", common.ErrStorageUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", common.ErrStorageUnavailable, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", common.ErrRuleNotFound, id)
	}

	return nil
}

// CountRules aggregates the rule corpus by status.
func (s *SQLiteStorage) CountRules(ctx context.Context) (service.RuleCounts, error) {
	if err := validateContext(ctx); err != nil {
		return service.RuleCounts{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM rules GROUP BY status`)
	if err != nil {
		return service.RuleCounts{}, fmt.Errorf("%w: failed to count rules: %v", common.ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var counts service.RuleCounts
	for rows.Next() {
		var status model.RuleStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return service.RuleCounts{}, fmt.Errorf("%w: failed to scan rule count: %v", common.ErrStorageUnavailable, err)
		}
		switch status {
		case model.StatusPending:
			counts.Pending = n
		case model.StatusApproved:
			counts.Approved = n
		case model.StatusRejected:
			counts.Rejected = n
		}
	}

	if err := rows.Err(); err != nil {
		return service.RuleCounts{}, fmt.Errorf("%w: error iterating rule counts: %v", common.ErrStorageUnavailable, err)
	}

	return counts, nil
}
