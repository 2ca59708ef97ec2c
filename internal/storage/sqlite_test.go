package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// mustInsertRule saves a rule built by the model constructors and returns it
// with its assigned id.
func mustInsertRule(t *testing.T, store *SQLiteStorage, rule model.Rule, err error) model.Rule {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to build rule: %v", err)
	}
	if _, err := store.InsertRule(context.Background(), &rule); err != nil {
		t.Fatalf("Failed to insert rule: %v", err)
	}
	return rule
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates database file and directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

		store, err := NewSQLiteStorage(dbPath)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()
	})

	t.Run("rejects empty path", func(t *testing.T) {
		if _, err := NewSQLiteStorage(""); err == nil {
			t.Error("NewSQLiteStorage(\"\") error = nil, want error")
		}
	})
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var version int
	if err := store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Running again is a no-op
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v, want nil", err)
	}
}

func TestMigrate_FeedbackIndexExists(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	var indexCount int
	err := store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_rule_applications_unconfirmed'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to check index: %v", err)
	}
	if indexCount != 1 {
		t.Error("unconfirmed-application index was not created")
	}
}
