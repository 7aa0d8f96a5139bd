/*
Package server exposes the dictionary to an input-handling process over a
msgpack stream, typically stdin/stdout.

Each request is one msgpack map carrying an id and an op:

	{"id": "q1", "op": "suggest", "lang": 1, "seq": "4663", "min": 5, "max": 20}
	{"id": "w1", "op": "insert", "lang": 1, "w": "gone"}
	{"id": "u1", "op": "use", "lang": 1, "w": "good", "seq": "4663"}
	{"id": "t1", "op": "truncate"}
	{"id": "h1", "op": "health"}

Responses carry the same id and are written as soon as the dispatched work
calls back, so they may arrive in a different order than the requests:

	{"id": "q1", "status": "ok", "s": ["good", "home", "gone"]}
	{"id": "w1", "status": "constraint_violation"}
	{"id": "u1", "status": "error", "e": "cannot increment word frequency. ..."}

"use" is fire-and-forget: its "ok" means the increment was queued.
*/
package server

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/dispatch"
	"github.com/japaniel/t9dict/pkg/language"
)

// Request is a single client message.
type Request struct {
	ID       string `msgpack:"id"`
	Op       string `msgpack:"op"`
	Lang     int    `msgpack:"lang,omitempty"`
	Sequence string `msgpack:"seq,omitempty"`
	Word     string `msgpack:"w,omitempty"`
	Min      int    `msgpack:"min,omitempty"`
	Max      int    `msgpack:"max,omitempty"`
}

// Response answers one Request.
type Response struct {
	ID     string   `msgpack:"id"`
	Status string   `msgpack:"status"`
	Words  []string `msgpack:"s,omitempty"`
	Error  string   `msgpack:"e,omitempty"`
}

const statusError = "error"

// Server decodes requests, hands them to a Dispatcher and encodes responses.
type Server struct {
	d     *dispatch.Dispatcher
	langs *language.Registry

	// DefaultMin and DefaultMax apply to suggest requests that leave them at 0.
	DefaultMin int
	DefaultMax int
	Logger     *log.Logger

	writeMu sync.Mutex
	enc     *msgpack.Encoder
	pending sync.WaitGroup
}

// New creates a Server over d resolving language ids through langs.
func New(d *dispatch.Dispatcher, langs *language.Registry) *Server {
	return &Server{
		d:          d,
		langs:      langs,
		DefaultMin: 5,
		DefaultMax: 20,
		Logger:     logger.New("server"),
	}
}

// Serve handles requests from r until it is exhausted, then waits for every
// outstanding callback so all responses are written to w before returning.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	s.enc = msgpack.NewEncoder(w)
	dec := msgpack.NewDecoder(r)
	s.Logger.Debug("Starting server")

	defer s.pending.Wait()
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.Logger.Error("Decoding request", "err", err)
			return fmt.Errorf("decode request: %w", err)
		}
		s.handle(req)
	}
}

func (s *Server) handle(req Request) {
	switch req.Op {
	case "health":
		s.send(Response{ID: req.ID, Status: dispatch.StatusOK.String()})
	case "suggest":
		s.handleSuggest(req)
	case "insert":
		s.handleInsert(req)
	case "use":
		s.handleUse(req)
	case "truncate":
		s.handleTruncate(req)
	default:
		s.sendError(req.ID, fmt.Errorf("unknown op %q", req.Op))
	}
}

func (s *Server) handleSuggest(req Request) {
	minWords, maxWords := req.Min, req.Max
	if minWords == 0 && maxWords == 0 {
		minWords, maxWords = s.DefaultMin, s.DefaultMax
	}
	s.pending.Add(1)
	err := s.d.Suggest(s.langs.Lookup(req.Lang), req.Sequence, minWords, maxWords, func(words []string) {
		defer s.pending.Done()
		s.send(Response{ID: req.ID, Status: dispatch.StatusOK.String(), Words: words})
	})
	if err != nil {
		s.pending.Done()
		s.sendError(req.ID, err)
	}
}

func (s *Server) handleInsert(req Request) {
	s.pending.Add(1)
	err := s.d.InsertWord(s.langs.Lookup(req.Lang), req.Word, func(st dispatch.Status) {
		defer s.pending.Done()
		s.send(Response{ID: req.ID, Status: st.String()})
	})
	if err != nil {
		s.pending.Done()
		s.sendError(req.ID, err)
	}
}

func (s *Server) handleUse(req Request) {
	if err := s.d.IncrementWordFrequency(s.langs.Lookup(req.Lang), req.Word, req.Sequence); err != nil {
		s.sendError(req.ID, err)
		return
	}
	s.send(Response{ID: req.ID, Status: dispatch.StatusOK.String()})
}

func (s *Server) handleTruncate(req Request) {
	s.pending.Add(1)
	err := s.d.TruncateWords(func(st dispatch.Status) {
		defer s.pending.Done()
		s.send(Response{ID: req.ID, Status: st.String()})
	})
	if err != nil {
		s.pending.Done()
		s.sendError(req.ID, err)
	}
}

func (s *Server) sendError(id string, err error) {
	s.Logger.Warn("Request failed", "id", id, "err", err)
	s.send(Response{ID: id, Status: statusError, Error: err.Error()})
}

// send is called from dispatcher goroutines, so encoding is serialized.
func (s *Server) send(resp Response) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		s.Logger.Error("Encoding response", "id", resp.ID, "err", err)
	}
}
