// Package logger builds charmbracelet/log loggers shared by the t9dict packages.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to stderr, so stdout stays free for the stdio server.
func New(prefix string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix)
}

// NewWithWriter creates a logger with the default options writing to w.
func NewWithWriter(w io.Writer, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// SetLevel parses a level name ("debug", "info", ...) and applies it globally.
// Unknown names leave the level unchanged and return false.
func SetLevel(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	lvl, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return false
	}
	log.SetLevel(lvl)
	return true
}
