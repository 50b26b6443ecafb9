package repository

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned by updates and deletes that matched no row
var ErrNotFound = errors.New("record not found")

var errNoRow = errors.New("no row")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
