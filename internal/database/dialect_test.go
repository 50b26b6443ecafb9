package database

import (
	"testing"
)

func TestDialectBasics(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		lastInsertID  bool
		migrationsDir string
	}{
		{name: "sqlite", dialect: NewSQLiteDialect(), driver: "sqlite3", lastInsertID: true, migrationsDir: "sqlite"},
		{name: "postgres", dialect: NewPostgresDialect(), driver: "postgres", lastInsertID: false, migrationsDir: "postgres"},
		{name: "mysql", dialect: NewMySQLDialect(), driver: "mysql", lastInsertID: true, migrationsDir: "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsDir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsDir)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM questions WHERE level = ?",
			expected: "SELECT * FROM questions WHERE level = ?",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "UPDATE user_hints SET hints_count = hints_count - 1 WHERE user_id = ? AND hints_count > ?",
			expected: "UPDATE user_hints SET hints_count = hints_count - 1 WHERE user_id = $1 AND hints_count > $2",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "INSERT INTO banned_users (user_id, reason) VALUES (?, ?)",
			expected: "INSERT INTO banned_users (user_id, reason) VALUES (?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInsertIgnore(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		expected string
	}{
		{NewSQLiteDialect(), "INSERT OR IGNORE INTO daily_bonus (user_id, bonus_date) VALUES (?, ?)"},
		{NewPostgresDialect(), "INSERT INTO daily_bonus (user_id, bonus_date) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{NewMySQLDialect(), "INSERT IGNORE INTO daily_bonus (user_id, bonus_date) VALUES (?, ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.DriverName(), func(t *testing.T) {
			if got := tt.dialect.InsertIgnore("daily_bonus", "user_id", "bonus_date"); got != tt.expected {
				t.Errorf("InsertIgnore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUpsertAdd(t *testing.T) {
	onConflict := "INSERT INTO user_hints (user_id, hints_count) VALUES (?, ?) " +
		"ON CONFLICT (user_id) DO UPDATE SET hints_count = user_hints.hints_count + excluded.hints_count"
	tests := []struct {
		dialect  Dialect
		expected string
	}{
		{NewSQLiteDialect(), onConflict},
		{NewPostgresDialect(), onConflict},
		{NewMySQLDialect(), "INSERT INTO user_hints (user_id, hints_count) VALUES (?, ?) " +
			"ON DUPLICATE KEY UPDATE hints_count = hints_count + VALUES(hints_count)"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.DriverName(), func(t *testing.T) {
			if got := tt.dialect.UpsertAdd("user_hints", "user_id", "hints_count"); got != tt.expected {
				t.Errorf("UpsertAdd() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
-- users
CREATE TABLE a (id INTEGER);

CREATE INDEX idx_a ON a(id);
`
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Errorf("second statement = %q", stmts[1])
	}
}
