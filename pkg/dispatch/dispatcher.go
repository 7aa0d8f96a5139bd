// Package dispatch keeps dictionary work off the caller's goroutine.
//
// Every write (insert, increment, truncate, import) goes through one
// single-worker queue, so writers never race each other inside the storage
// engine. Suggestion queries run on a small separate pool. Outcomes come back
// through typed callbacks; the caller never blocks on storage and never sees a
// storage error directly, only a Status. Two dispatched operations are not
// ordered relative to each other unless the caller waits for the first
// callback before issuing the second. Dispatched jobs cannot be canceled.
package dispatch

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/db"
	"github.com/japaniel/t9dict/pkg/dictionary"
	"github.com/japaniel/t9dict/pkg/language"
	"github.com/japaniel/t9dict/pkg/suggest"
)

// Status is the outcome of a dispatched write.
type Status int

const (
	StatusOK Status = iota
	StatusConstraintViolation
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConstraintViolation:
		return "constraint_violation"
	default:
		return "failure"
	}
}

// StatusFor maps a store error to the Status reported to callers.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, db.ErrConstraintViolation):
		return StatusConstraintViolation
	default:
		return StatusFailure
	}
}

// Options sizes the dispatcher pools.
type Options struct {
	// Readers is the number of goroutines serving suggestion queries.
	Readers int
	// Queue is the capacity of each pool's job queue.
	Queue int
}

// Dispatcher runs Coordinator writes and Engine queries asynchronously.
type Dispatcher struct {
	coord  *dictionary.Coordinator
	engine *suggest.Engine
	writes *WorkerPool
	reads  *WorkerPool
	Logger *log.Logger
}

// New starts a Dispatcher. Close must be called to stop its goroutines.
func New(coord *dictionary.Coordinator, engine *suggest.Engine, opts Options) *Dispatcher {
	if opts.Readers <= 0 {
		opts.Readers = 2
	}
	d := &Dispatcher{
		coord:  coord,
		engine: engine,
		writes: NewWorkerPool(1, opts.Queue),
		reads:  NewWorkerPool(opts.Readers, opts.Queue),
		Logger: logger.New("dispatch"),
	}
	d.writes.Logger = d.Logger
	d.reads.Logger = d.Logger
	d.writes.OnError = d.jobFailed
	d.reads.OnError = d.jobFailed
	// Jobs run to completion; Close drains the queues instead of canceling.
	d.writes.Start(context.Background())
	d.reads.Start(context.Background())
	return d
}

// jobFailed logs panics. Returned errors are already logged by the
// coordinator or delivered through a callback.
func (d *Dispatcher) jobFailed(err error) {
	var pe *PanicError
	if errors.As(err, &pe) {
		d.Logger.Error("Dispatched job panicked", "panic", pe.Value)
	}
}

// Suggest queues a suggestion query. cb receives the ranked words, or an
// empty list when the query failed.
func (d *Dispatcher) Suggest(lang language.Language, sequence string, minWords, maxWords int, cb func([]string)) error {
	return d.reads.Submit(func(ctx context.Context) error {
		words, err := d.engine.Suggest(lang, sequence, minWords, maxWords)
		if err != nil {
			d.Logger.Error("Failed getting suggestions", "sequence", sequence, "err", err)
			words = []string{}
		}
		if cb != nil {
			cb(words)
		}
		return err
	})
}

// InsertWord validates word on the calling goroutine, returning
// dictionary.ErrInvalidLanguage, dictionary.ErrInsertBlankWord or an encoding
// error right away. Otherwise the insert is queued and cb receives its Status.
func (d *Dispatcher) InsertWord(lang language.Language, word string, cb func(Status)) error {
	w, err := d.coord.PrepareWord(lang, word)
	if err != nil {
		return err
	}
	return d.writes.Submit(func(ctx context.Context) error {
		err := d.coord.SaveWord(w)
		if cb != nil {
			cb(StatusFor(err))
		}
		return err
	})
}

// IncrementWordFrequency validates its input synchronously and queues the
// increment without a callback. Failures are only logged.
func (d *Dispatcher) IncrementWordFrequency(lang language.Language, word, sequence string) error {
	skip, err := d.coord.CheckIncrement(lang, word, sequence)
	if err != nil || skip {
		return err
	}
	langID := lang.ID()
	return d.writes.Submit(func(ctx context.Context) error {
		return d.coord.ApplyIncrement(langID, word, sequence)
	})
}

// TruncateWords queues deletion of the whole dictionary.
func (d *Dispatcher) TruncateWords(cb func(Status)) error {
	return d.writes.Submit(func(ctx context.Context) error {
		err := d.coord.TruncateWords()
		if cb != nil {
			cb(StatusFor(err))
		}
		return err
	})
}

// Import queues a word list import. ctx also bounds the wait for room in the
// write queue, returning ctx.Err() without queueing. Once running, ctx only
// stops the import between chunks; a stopped import is rolled back. cb
// receives the number of imported words and the Status.
func (d *Dispatcher) Import(ctx context.Context, im *dictionary.Importer, lang language.Language, paths []string, cb func(int, Status)) error {
	if lang == nil {
		return dictionary.ErrInvalidLanguage
	}
	return d.writes.SubmitCtx(ctx, func(context.Context) error {
		n, err := im.ImportFiles(ctx, lang, paths...)
		if err != nil {
			d.Logger.Error("Failed importing word lists", "paths", paths, "err", err)
		}
		if cb != nil {
			cb(n, StatusFor(err))
		}
		return err
	})
}

// Close stops accepting work and waits for every queued job to finish.
func (d *Dispatcher) Close() {
	d.reads.Close()
	d.writes.Close()
}
