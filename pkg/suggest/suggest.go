// Package suggest turns a typed digit sequence into ranked candidate words.
//
// Candidates come from two phases. The exact phase returns words whose
// sequence equals the typed one ("9428" -> "what"). When that yields fewer
// than the requested minimum and at least two keys were typed, the fuzzy phase
// tops the list up with longer words the typed keys are a prefix of
// ("765" -> "roll", "roller"). Both phases rank by frequency.
package suggest

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/db"
	"github.com/japaniel/t9dict/pkg/language"
)

// MinFuzzySequenceLength is the shortest sequence the fuzzy phase runs for.
const MinFuzzySequenceLength = 2

// Reader is the part of the word store the engine queries.
type Reader interface {
	Exact(langID int, sequence string, limit int) ([]db.Word, error)
	Fuzzy(langID int, sequence string, limit int) ([]db.Word, error)
}

// Engine answers suggestion queries against a Reader.
type Engine struct {
	store  Reader
	Logger *log.Logger
}

// NewEngine creates an Engine reading from store.
func NewEngine(store Reader) *Engine {
	return &Engine{
		store:  store,
		Logger: logger.New("suggest"),
	}
}

// Suggest returns up to maxWords exact matches for sequence, followed by
// fuzzy matches when there were fewer than minWords of them. minWords is
// raised to 0 and maxWords to minWords. An empty sequence or a nil language
// returns an empty list without touching the store.
func (e *Engine) Suggest(lang language.Language, sequence string, minWords, maxWords int) ([]string, error) {
	minWords = max(minWords, 0)
	maxWords = max(maxWords, minWords)

	if sequence == "" {
		e.Logger.Warn("Attempting to get suggestions for an empty sequence")
		return []string{}, nil
	}
	if lang == nil {
		e.Logger.Warn("Attempting to get suggestions for a nil language", "sequence", sequence)
		return []string{}, nil
	}

	exact, err := e.store.Exact(lang.ID(), sequence, maxWords)
	if err != nil {
		return nil, fmt.Errorf("exact matches for %s: %w", sequence, err)
	}
	e.Logger.Debug("exact matches", "sequence", sequence, "count", len(exact))

	suggestions := make([]string, 0, max(len(exact), minWords))
	for _, w := range exact {
		e.Logger.Debug("exact match", "word", w.Word, "frequency", w.Frequency)
		suggestions = append(suggestions, w.Word)
	}

	if len(exact) >= minWords || len(sequence) < MinFuzzySequenceLength {
		return suggestions, nil
	}

	fuzzy, err := e.store.Fuzzy(lang.ID(), sequence, minWords-len(exact))
	if err != nil {
		return nil, fmt.Errorf("fuzzy matches for %s: %w", sequence, err)
	}
	e.Logger.Debug("fuzzy matches", "sequence", sequence, "count", len(fuzzy))
	for _, w := range fuzzy {
		e.Logger.Debug("fuzzy match", "word", w.Word, "sequence", w.Sequence)
		suggestions = append(suggestions, w.Word)
	}
	return suggestions, nil
}
