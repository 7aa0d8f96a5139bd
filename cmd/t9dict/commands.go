package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/t9dict/pkg/config"
	"github.com/japaniel/t9dict/pkg/dictionary"
	"github.com/japaniel/t9dict/pkg/dispatch"
	"github.com/japaniel/t9dict/pkg/server"
)

// run executes the CLI with args and always releases the shared store,
// including when a command fails.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if tdErr := a.teardown(); tdErr != nil && err == nil {
		err = tdErr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "t9dict",
		Short:        "Predictive-text dictionary for numeric keypads",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipSetup"] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.toml")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to the SQLite dictionary (overrides config)")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "language id or name (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newSuggestCmd(a),
		newAddCmd(a),
		newUseCmd(a),
		newImportCmd(a),
		newTruncateCmd(a),
		newServeCmd(a),
		newInitConfigCmd(a),
	)
	return root
}

func newSuggestCmd(a *app) *cobra.Command {
	var minWords, maxWords int
	cmd := &cobra.Command{
		Use:   "suggest <sequence>",
		Short: "Print ranked words for a digit sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min") {
				minWords = a.cfg.Suggest.MinWords
			}
			if !cmd.Flags().Changed("max") {
				maxWords = a.cfg.Suggest.MaxWords
			}
			lang, err := a.language()
			if err != nil {
				return err
			}
			done := make(chan []string, 1)
			if err := a.disp.Suggest(lang, args[0], minWords, maxWords, func(words []string) { done <- words }); err != nil {
				return err
			}
			for _, w := range <-done {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&minWords, "min", 0, "minimum number of words, filled with longer completions")
	cmd.Flags().IntVar(&maxWords, "max", 0, "maximum number of exact matches")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <word>...",
		Short: "Learn new words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := a.language()
			if err != nil {
				return err
			}
			var failed int
			for _, word := range args {
				done := make(chan dispatch.Status, 1)
				if err := a.disp.InsertWord(lang, word, func(s dispatch.Status) { done <- s }); err != nil {
					return fmt.Errorf("%q: %w", word, err)
				}
				status := <-done
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", word, status)
				if status == dispatch.StatusFailure {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d word(s) could not be stored", failed)
			}
			return nil
		},
	}
}

func newUseCmd(a *app) *cobra.Command {
	var sequence string
	cmd := &cobra.Command{
		Use:   "use <word>",
		Short: "Count one more use of a stored word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := a.language()
			if err != nil {
				return err
			}
			word := lang.ToLowerCase(args[0])
			if sequence == "" {
				if sequence, err = lang.DigitSequenceForWord(word); err != nil {
					return err
				}
			}
			// Fire-and-forget; teardown waits for the write queue to drain.
			return a.disp.IncrementWordFrequency(lang, word, sequence)
		},
	}
	cmd.Flags().StringVar(&sequence, "sequence", "", "digit sequence of the word (computed when empty)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var chunkSize int
	cmd := &cobra.Command{
		Use:   "import <word-list>...",
		Short: "Import word lists in one transaction",
		Long:  "Import word lists (one word per line, optional tab-separated frequency). Any error rolls the whole import back.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := a.language()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			im := dictionary.NewImporter(a.coord)
			im.ChunkSize = a.cfg.Import.ChunkSize
			if cmd.Flags().Changed("chunk-size") {
				im.ChunkSize = chunkSize
			}
			im.OnProgress = func(current, total int) {
				a.log.Info("importing", "done", current, "total", total)
			}

			type result struct {
				n      int
				status dispatch.Status
			}
			done := make(chan result, 1)
			err = a.disp.Import(ctx, im, lang, args, func(n int, s dispatch.Status) { done <- result{n, s} })
			if err != nil {
				return err
			}
			r := <-done
			if r.status != dispatch.StatusOK {
				return fmt.Errorf("import failed (%s), nothing was imported", r.status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d words\n", r.n)
			return nil
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "rows per bulk insert (overrides config)")
	return cmd
}

func newTruncateCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Delete every word of every language",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the dictionary without --yes")
			}
			done := make(chan dispatch.Status, 1)
			if err := a.disp.TruncateWords(func(s dispatch.Status) { done <- s }); err != nil {
				return err
			}
			if s := <-done; s != dispatch.StatusOK {
				return fmt.Errorf("truncate failed: %s", s)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dictionary cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer msgpack requests on stdin with responses on stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(a.disp, a.langs)
			srv.DefaultMin = a.cfg.Suggest.MinWords
			srv.DefaultMax = a.cfg.Suggest.MaxWords
			return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newInitConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init-config [path]",
		Short:       "Write the default configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipSetup": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.GetDefaultConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
