package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL representation of a boolean value
	BoolValue(b bool) string

	// InsertIgnore returns an INSERT that silently skips rows violating a
	// unique constraint. RowsAffected is 0 when the row already existed.
	InsertIgnore(table string, columns ...string) string

	// UpsertAdd returns an INSERT of (key, amount) that adds amount to the
	// counter column when a row with the key already exists
	UpsertAdd(table, keyColumn, counterColumn string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// insertStatement builds "INSERT <verb> table (a, b) VALUES (?, ?)"
func insertStatement(verb, table string, columns []string) string {
	marks := make([]string, len(columns))
	for i := range marks {
		marks[i] = "?"
	}
	return verb + " " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

// upsertAddOnConflict is shared by the dialects that support ON CONFLICT
func upsertAddOnConflict(table, keyColumn, counterColumn string) string {
	return insertStatement("INSERT INTO", table, []string{keyColumn, counterColumn}) +
		" ON CONFLICT (" + keyColumn + ") DO UPDATE SET " +
		counterColumn + " = " + table + "." + counterColumn + " + excluded." + counterColumn
}
