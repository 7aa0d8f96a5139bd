package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/db"
	"github.com/japaniel/t9dict/pkg/language"
)

// Entry is one line of a word list.
type Entry struct {
	Word      string
	Frequency int
	Line      int
}

// ReadWordList parses a word list: one word per line, optionally followed by a
// tab and a frequency. Blank lines and lines starting with '#' are skipped.
func ReadWordList(r io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e := Entry{Word: line, Frequency: 1, Line: lineNo}
		if word, freq, ok := strings.Cut(line, "\t"); ok {
			f, err := strconv.Atoi(strings.TrimSpace(freq))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad frequency %q: %w", lineNo, freq, err)
			}
			e.Word = strings.TrimSpace(word)
			e.Frequency = f
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadWordList reads the word list file at path.
func LoadWordList(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWordList(f)
}

// Importer loads word lists into the dictionary in a single transaction.
type Importer struct {
	coord *Coordinator
	// ChunkSize is the number of rows handed to InsertWordsSync at once.
	ChunkSize int
	// OnProgress is called after each chunk with the rows written so far and the total.
	OnProgress func(current, total int)
	Logger     *log.Logger
}

// NewImporter creates an Importer writing through coord.
func NewImporter(coord *Coordinator) *Importer {
	return &Importer{
		coord:     coord,
		ChunkSize: 1000,
		Logger:    logger.New("import"),
	}
}

// Prepare reads the given word lists concurrently and resolves every entry
// for lang. Rows keep file order, then line order. Frequencies are left as
// listed; the store rescales them on insert.
func (im *Importer) Prepare(ctx context.Context, lang language.Language, paths ...string) ([]db.Word, error) {
	if lang == nil {
		return nil, ErrInvalidLanguage
	}
	perFile := make([][]db.Word, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			entries, err := LoadWordList(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rows := make([]db.Word, 0, len(entries))
			for _, e := range entries {
				if err := ctx.Err(); err != nil {
					return err
				}
				w, err := im.coord.PrepareWord(lang, e.Word)
				if err != nil {
					return fmt.Errorf("%s:%d: %w", path, e.Line, err)
				}
				w.Frequency = e.Frequency
				rows = append(rows, w)
			}
			perFile[i] = rows
			im.Logger.Debug("parsed word list", "path", path, "words", len(rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []db.Word
	for _, rows := range perFile {
		out = append(out, rows...)
	}
	return out, nil
}

// Import writes words inside one transaction. Any failure, including ctx
// being canceled between chunks, rolls back every row of the import.
func (im *Importer) Import(ctx context.Context, words []db.Word) (n int, err error) {
	chunk := im.ChunkSize
	if chunk <= 0 {
		chunk = len(words)
	}

	if err := im.coord.BeginTransaction(); err != nil {
		return 0, err
	}
	defer func() {
		if endErr := im.coord.EndTransaction(err == nil); endErr != nil && err == nil {
			err = endErr
		}
		if err != nil {
			im.Logger.Error("Import rolled back", "words", len(words), "err", err)
			n = 0
		}
	}()

	total := len(words)
	for start := 0; start < total; start += chunk {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		end := min(start+chunk, total)
		if err := im.coord.InsertWordsSync(words[start:end]); err != nil {
			return n, err
		}
		n = end
		if im.OnProgress != nil {
			im.OnProgress(n, total)
		}
	}
	return n, nil
}

// ImportFiles prepares and imports the given word lists.
func (im *Importer) ImportFiles(ctx context.Context, lang language.Language, paths ...string) (int, error) {
	words, err := im.Prepare(ctx, lang, paths...)
	if err != nil {
		return 0, err
	}
	return im.Import(ctx, words)
}
