package db

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConstraintViolation is returned when inserting a (language, sequence, word)
	// triple that is already stored.
	ErrConstraintViolation = errors.New("word already exists")
	// ErrNotFound is returned when incrementing a word that is not stored.
	ErrNotFound = errors.New("word not found")
	// ErrTransactionActive is returned by BeginTransaction while one is open.
	ErrTransactionActive = errors.New("transaction already in progress")
	// ErrNoTransaction is returned by EndTransaction when none is open.
	ErrNoTransaction = errors.New("no transaction in progress")
)

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint failed")
}
