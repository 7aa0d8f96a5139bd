package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/japaniel/t9dict/internal/logger"
	"github.com/japaniel/t9dict/pkg/config"
	"github.com/japaniel/t9dict/pkg/db"
	"github.com/japaniel/t9dict/pkg/dictionary"
	"github.com/japaniel/t9dict/pkg/dispatch"
	"github.com/japaniel/t9dict/pkg/language"
	"github.com/japaniel/t9dict/pkg/suggest"
)

// app is everything a command needs, built once per invocation.
type app struct {
	configPath string
	dbPath     string
	lang       string
	logLevel   string

	cfg    *config.Config
	langs  *language.Registry
	store  *db.Store
	coord  *dictionary.Coordinator
	engine *suggest.Engine
	disp   *dispatch.Dispatcher
	log    *log.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, used, err := config.LoadConfigWithPriority(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = a.dbPath
	}
	a.langs = language.DefaultRegistry()
	if cmd.Flags().Changed("lang") {
		id, err := a.resolveLanguage(a.lang)
		if err != nil {
			return err
		}
		cfg.Suggest.Language = id
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cfg.Log.Level != "" && !logger.SetLevel(cfg.Log.Level) {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	a.cfg = cfg
	a.log = logger.New("t9dict")
	if used != "" {
		a.log.Debug("using config", "path", used)
	}

	a.store, err = db.Shared(cfg.Database.Path, cfg.Database.BusyTimeoutMS)
	if err != nil {
		return err
	}
	a.coord = dictionary.NewCoordinator(a.store)
	a.engine = suggest.NewEngine(a.store)
	a.disp = dispatch.New(a.coord, a.engine, dispatch.Options{
		Readers: cfg.Workers.Readers,
		Queue:   cfg.Workers.Queue,
	})
	return nil
}

// teardown drains queued work before the shared store goes away.
func (a *app) teardown() error {
	if a.disp != nil {
		a.disp.Close()
		a.disp = nil
	}
	a.store = nil
	return db.CloseShared()
}

// language resolves the configured language; a missing one is an error for the CLI.
func (a *app) language() (language.Language, error) {
	lang := a.langs.Lookup(a.cfg.Suggest.Language)
	if lang == nil {
		return nil, fmt.Errorf("unknown language id %d", a.cfg.Suggest.Language)
	}
	return lang, nil
}

// resolveLanguage accepts a language id or a registered language name.
func (a *app) resolveLanguage(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	if lang := a.langs.ByName(s); lang != nil {
		return lang.ID(), nil
	}
	return 0, fmt.Errorf("unknown language %q", s)
}
