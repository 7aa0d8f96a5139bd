package db

import (
	"database/sql"
	"fmt"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Prepare(query string) (*sql.Stmt, error)
}

const insertWordSQL = `INSERT INTO words (lang_id, seq, word, frequency) VALUES (?, ?, ?, ?)`

// InsertWord stores a new word with frequency 1. A duplicate
// (langID, sequence, word) triple fails with ErrConstraintViolation and leaves
// the stored row untouched.
func InsertWord(db DBExecutor, langID int, sequence, word string) error {
	if _, err := db.Exec(insertWordSQL, langID, sequence, word, 1); err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("insert %q (%s, lang %d): %w", word, sequence, langID, ErrConstraintViolation)
		}
		return fmt.Errorf("insert %q (%s, lang %d): %w", word, sequence, langID, err)
	}
	return nil
}

// IncrementFrequency bumps the frequency of a single word. When the new value
// would exceed MaxFrequency it is divided by FrequencyDivisor in the same
// statement, so the row is mutated exactly once and concurrent increments
// cannot lose updates.
func IncrementFrequency(db DBExecutor, langID int, word, sequence string) error {
	res, err := db.Exec(`UPDATE words SET frequency = CASE
		WHEN frequency + 1 > ? THEN (frequency + 1) / ?
		ELSE frequency + 1
	END
	WHERE lang_id = ? AND seq = ? AND word = ?`,
		MaxFrequency, FrequencyDivisor, langID, sequence, word)
	if err != nil {
		return fmt.Errorf("increment %q (%s, lang %d): %w", word, sequence, langID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("increment %q (%s, lang %d): %w", word, sequence, langID, ErrNotFound)
	}
	return nil
}

// InsertMany stores pre-validated rows through one prepared statement.
// It stops at the first failing row; run it inside a transaction to undo the
// rows that went in before.
func InsertMany(db DBExecutor, words []Word) error {
	if len(words) == 0 {
		return nil
	}
	stmt, err := db.Prepare(insertWordSQL)
	if err != nil {
		return fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.Exec(w.LangID, w.Sequence, w.Word, NormalizeFrequency(w.Frequency)); err != nil {
			if isUniqueConstraintErr(err) {
				return fmt.Errorf("bulk insert %q (%s, lang %d): %w", w.Word, w.Sequence, w.LangID, ErrConstraintViolation)
			}
			return fmt.Errorf("bulk insert %q (%s, lang %d): %w", w.Word, w.Sequence, w.LangID, err)
		}
	}
	return nil
}

// ClearAll removes every stored word.
func ClearAll(db DBExecutor) error {
	_, err := db.Exec(`DELETE FROM words`)
	return err
}

// GetExact returns up to limit words whose sequence equals sequence, most
// frequent first. Equal frequencies keep insertion order.
func GetExact(db DBExecutor, langID int, sequence string, limit int) ([]Word, error) {
	rows, err := db.Query(`SELECT id, lang_id, seq, word, frequency FROM words
		WHERE lang_id = ? AND seq = ?
		ORDER BY frequency DESC, id ASC
		LIMIT ?`, langID, sequence, limit)
	if err != nil {
		return nil, err
	}
	return scanWords(rows)
}

// GetFuzzy returns up to limit words whose sequence starts with sequence and
// is longer than it, most frequent first.
func GetFuzzy(db DBExecutor, langID int, sequence string, limit int) ([]Word, error) {
	// Digits sort before ':', so [seq, seq+":") covers exactly the completions of seq.
	rows, err := db.Query(`SELECT id, lang_id, seq, word, frequency FROM words
		WHERE lang_id = ? AND seq > ? AND seq < ?
		ORDER BY frequency DESC, id ASC
		LIMIT ?`, langID, sequence, sequence+":", limit)
	if err != nil {
		return nil, err
	}
	return scanWords(rows)
}

// GetWord returns a single stored word.
func GetWord(db DBExecutor, langID int, sequence, word string) (Word, error) {
	var w Word
	err := db.QueryRow(`SELECT id, lang_id, seq, word, frequency FROM words
		WHERE lang_id = ? AND seq = ? AND word = ?`, langID, sequence, word).
		Scan(&w.ID, &w.LangID, &w.Sequence, &w.Word, &w.Frequency)
	if err == sql.ErrNoRows {
		return Word{}, ErrNotFound
	}
	if err != nil {
		return Word{}, err
	}
	return w, nil
}

// CountWords returns the number of stored words for a language.
func CountWords(db DBExecutor, langID int) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM words WHERE lang_id = ?`, langID).Scan(&n)
	return n, err
}

func scanWords(rows *sql.Rows) ([]Word, error) {
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.LangID, &w.Sequence, &w.Word, &w.Frequency); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
