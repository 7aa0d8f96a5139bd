// Package dictionary validates dictionary writes and turns them into word
// store calls: learning new words, counting word usage and importing word lists.
package dictionary

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/db"
	"github.com/japaniel/t9dict/pkg/language"
)

var (
	// ErrInvalidLanguage is returned when a write has no language.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrInsertBlankWord is returned when inserting an empty word.
	ErrInsertBlankWord = errors.New("cannot insert a blank word")
)

// IncrementInputError is returned when an increment names a word without a
// sequence or a sequence without a word. Every word has a sequence, so only
// both-or-neither makes sense.
type IncrementInputError struct {
	Word     string
	Sequence string
}

func (e *IncrementInputError) Error() string {
	return fmt.Sprintf("cannot increment word frequency. Word: %q, Sequence: %q", e.Word, e.Sequence)
}

// Store is the word store the coordinator writes to.
type Store interface {
	Insert(langID int, sequence, word string) error
	IncrementFrequency(langID int, word, sequence string) error
	InsertMany(words []db.Word) error
	ClearAll() error
	BeginTransaction() error
	EndTransaction(success bool) error
}

// Coordinator validates write requests and dispatches them to a Store.
type Coordinator struct {
	store  Store
	Logger *log.Logger
}

// NewCoordinator creates a Coordinator over store.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{
		store:  store,
		Logger: logger.New("dictionary"),
	}
}

// PrepareWord validates a new word and resolves its stored form: lowercased
// for the language's locale, with its digit sequence and frequency 1.
// It never touches the store.
func (c *Coordinator) PrepareWord(lang language.Language, word string) (db.Word, error) {
	if lang == nil {
		return db.Word{}, ErrInvalidLanguage
	}
	if word == "" {
		return db.Word{}, ErrInsertBlankWord
	}
	seq, err := lang.DigitSequenceForWord(word)
	if err != nil {
		return db.Word{}, fmt.Errorf("digit sequence for %q: %w", word, err)
	}
	return db.Word{
		LangID:    lang.ID(),
		Sequence:  seq,
		Word:      lang.ToLowerCase(word),
		Frequency: 1,
	}, nil
}

// SaveWord stores a prepared word and counts it as used once, so a freshly
// learned word ends up with frequency 2.
func (c *Coordinator) SaveWord(w db.Word) error {
	if err := c.store.Insert(w.LangID, w.Sequence, w.Word); err != nil {
		if errors.Is(err, db.ErrConstraintViolation) {
			c.Logger.Error("Constraint violation when inserting a word", "word", w.Word, "sequence", w.Sequence, "language", w.LangID)
		} else {
			c.Logger.Error("Failed inserting word", "word", w.Word, "sequence", w.Sequence, "language", w.LangID, "err", err)
		}
		return err
	}
	if err := c.store.IncrementFrequency(w.LangID, w.Word, w.Sequence); err != nil {
		c.Logger.Error("Failed counting new word", "word", w.Word, "sequence", w.Sequence, "language", w.LangID, "err", err)
		return err
	}
	return nil
}

// InsertWord validates, prepares and saves word in one call.
func (c *Coordinator) InsertWord(lang language.Language, word string) error {
	w, err := c.PrepareWord(lang, word)
	if err != nil {
		return err
	}
	return c.SaveWord(w)
}

// CheckIncrement validates increment input. skip is true when both word and
// sequence are empty, which is a no-op.
func (c *Coordinator) CheckIncrement(lang language.Language, word, sequence string) (skip bool, err error) {
	if lang == nil {
		return false, ErrInvalidLanguage
	}
	if word == "" && sequence == "" {
		return true, nil
	}
	if word == "" || sequence == "" {
		return false, &IncrementInputError{Word: word, Sequence: sequence}
	}
	return false, nil
}

// IncrementWordFrequency counts one more use of a stored word.
func (c *Coordinator) IncrementWordFrequency(lang language.Language, word, sequence string) error {
	skip, err := c.CheckIncrement(lang, word, sequence)
	if err != nil || skip {
		return err
	}
	return c.ApplyIncrement(lang.ID(), word, sequence)
}

// ApplyIncrement performs an already validated increment.
func (c *Coordinator) ApplyIncrement(langID int, word, sequence string) error {
	if err := c.store.IncrementFrequency(langID, word, sequence); err != nil {
		c.Logger.Error("Failed incrementing word frequency", "word", word, "sequence", sequence, "language", langID, "err", err)
		return err
	}
	return nil
}

// TruncateWords deletes the whole dictionary.
func (c *Coordinator) TruncateWords() error {
	if err := c.store.ClearAll(); err != nil {
		c.Logger.Error("Failed truncating words", "err", err)
		return err
	}
	return nil
}

// InsertWordsSync bulk-inserts pre-validated words on the calling goroutine.
// Wrap it in BeginTransaction/EndTransaction to make the import atomic.
func (c *Coordinator) InsertWordsSync(words []db.Word) error {
	return c.store.InsertMany(words)
}

// BeginTransaction opens the store transaction.
func (c *Coordinator) BeginTransaction() error {
	return c.store.BeginTransaction()
}

// EndTransaction commits (success) or discards the store transaction.
func (c *Coordinator) EndTransaction(success bool) error {
	return c.store.EndTransaction(success)
}
