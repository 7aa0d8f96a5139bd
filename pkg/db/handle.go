package db

import (
	"database/sql"
	"fmt"
	"sync"
)

// Store owns the database connection and the single explicit transaction the
// dictionary allows at a time. While a transaction is open, every operation
// on the Store runs inside it, so readers see staged rows before they are
// committed and lose them again on rollback.
type Store struct {
	conn *sql.DB

	// mu is held for reading by each operation and for writing while a
	// transaction begins or ends, so no statement can race a commit.
	mu sync.RWMutex
	tx *sql.Tx
}

// NewStore wraps an already migrated connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// Open opens and migrates the database at path.
func Open(path string, busyTimeoutMS int) (*Store, error) {
	conn, err := OpenDB(path, busyTimeoutMS)
	if err != nil {
		return nil, err
	}
	return NewStore(conn), nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB { return s.conn }

// executorLocked assumes s.mu is held.
func (s *Store) executorLocked() DBExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *Store) with(fn func(DBExecutor) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.executorLocked())
}

// BeginTransaction opens the store-wide transaction. Nesting is not supported.
func (s *Store) BeginTransaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrTransactionActive
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// EndTransaction commits the open transaction when success is true and
// discards everything written since BeginTransaction otherwise.
func (s *Store) EndTransaction(success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	if !success {
		return tx.Rollback()
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is open.
func (s *Store) InTransaction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tx != nil
}

// Insert stores a new word with frequency 1.
func (s *Store) Insert(langID int, sequence, word string) error {
	return s.with(func(e DBExecutor) error { return InsertWord(e, langID, sequence, word) })
}

// IncrementFrequency bumps the frequency of an existing word.
func (s *Store) IncrementFrequency(langID int, word, sequence string) error {
	return s.with(func(e DBExecutor) error { return IncrementFrequency(e, langID, word, sequence) })
}

// InsertMany stores pre-validated rows.
func (s *Store) InsertMany(words []Word) error {
	return s.with(func(e DBExecutor) error { return InsertMany(e, words) })
}

// ClearAll removes every word. Outside a transaction this cannot be undone.
func (s *Store) ClearAll() error {
	return s.with(func(e DBExecutor) error { return ClearAll(e) })
}

// Exact returns exact sequence matches, most frequent first.
func (s *Store) Exact(langID int, sequence string, limit int) ([]Word, error) {
	var out []Word
	err := s.with(func(e DBExecutor) error {
		var err error
		out, err = GetExact(e, langID, sequence, limit)
		return err
	})
	return out, err
}

// Fuzzy returns longer completions of sequence, most frequent first.
func (s *Store) Fuzzy(langID int, sequence string, limit int) ([]Word, error) {
	var out []Word
	err := s.with(func(e DBExecutor) error {
		var err error
		out, err = GetFuzzy(e, langID, sequence, limit)
		return err
	})
	return out, err
}

// Get returns one stored word or ErrNotFound.
func (s *Store) Get(langID int, sequence, word string) (Word, error) {
	var out Word
	err := s.with(func(e DBExecutor) error {
		var err error
		out, err = GetWord(e, langID, sequence, word)
		return err
	})
	return out, err
}

// Count returns the number of words stored for a language.
func (s *Store) Count(langID int) (int, error) {
	var n int
	err := s.with(func(e DBExecutor) error {
		var err error
		n, err = CountWords(e, langID)
		return err
	})
	return n, err
}

// Close rolls back a dangling transaction and closes the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()
	return s.conn.Close()
}
