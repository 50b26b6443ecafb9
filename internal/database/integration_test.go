package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	tables := []string{"users", "questions", "results", "banned_users", "question_reports", "daily_bonus", "user_hints"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// A second run must be a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}
	var applied int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&applied); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("migrations recorded = %d, want 1", applied)
	}
}

func TestSeedQuestions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	if err := db.SeedQuestions(ctx); err != nil {
		t.Fatalf("SeedQuestions() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Fatal("expected seeded questions")
	}

	for _, level := range []string{"A1", "A2", "B1", "B2", "C1"} {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE level = ?", level).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			t.Errorf("no seeded questions for %s", level)
		}
	}

	// Seeding twice leaves the bank unchanged
	if err := db.SeedQuestions(ctx); err != nil {
		t.Fatalf("second SeedQuestions() error = %v", err)
	}
	var again int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&again); err != nil {
		t.Fatal(err)
	}
	if again != count {
		t.Errorf("question count changed from %d to %d", count, again)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx, "INSERT INTO users (provider, subject, username) VALUES (?, ?, ?)",
			"web", "committed", "committed")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() commit path error = %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO users (provider, subject, username) VALUES (?, ?, ?)",
			"web", "rolled-back", "rolled-back"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("users = %d, want 1 (rollback should discard the second insert)", count)
	}
}

func TestDialectUpsertsOnSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	insert := db.Dialect.InsertIgnore("daily_bonus", "user_id", "bonus_date")
	for i, want := range []int64{1, 0} {
		res, err := db.ExecContext(ctx, insert, 42, "2026-01-02")
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if n, _ := res.RowsAffected(); n != want {
			t.Errorf("insert %d RowsAffected = %d, want %d", i, n, want)
		}
	}

	upsert := db.Dialect.UpsertAdd("user_hints", "user_id", "hints_count")
	for i := 0; i < 3; i++ {
		if _, err := db.ExecContext(ctx, upsert, 42, 1); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	var hints int
	if err := db.QueryRowContext(ctx, "SELECT hints_count FROM user_hints WHERE user_id = ?", 42).Scan(&hints); err != nil {
		t.Fatal(err)
	}
	if hints != 3 {
		t.Errorf("hints_count = %d, want 3", hints)
	}
}
