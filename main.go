package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"libcat/catalog"
	"libcat/internal/config"
	"libcat/internal/logger"
)

var version = "dev" // overridden at build time via -ldflags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options carries flag values until a command resolves them against the
// config file and environment.
type options struct {
	configFile string
	file       string
	loansFile  string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "libcat",
		Short: "Interactive library catalog manager",
		Long: `libcat tracks books, members and active loans through a numbered menu,
persisting the catalog to a pipe-delimited text file.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&opts.file, "file", "f", "", `catalog file (default "`+config.DefaultCatalogFile+`")`)
	flags.StringVar(&opts.loansFile, "loans-file", "", `loan ledger file, empty disables loan persistence (default "`+config.DefaultLoansFile+`")`)
	flags.StringVar(&opts.logLevel, "log-level", "", `log level: trace, debug, info, warn or error (default "info")`)
	flags.StringVar(&opts.logFormat, "log-format", "", `log format: auto, console or json (default "auto")`)

	root.AddCommand(newImportCmd(opts))
	return root
}

// loadConfig layers flag overrides on top of the resolved config. Changed()
// rather than a zero-value check, so --loans-file "" can disable the ledger.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Catalog.File = opts.file
	}
	if flags.Changed("loans-file") {
		cfg.Catalog.LoansFile = opts.loansFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runShell(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.Debug().
		Str("catalog_file", cfg.Catalog.File).
		Str("loans_file", cfg.Catalog.LoansFile).
		Str("log_level", cfg.Logging.Level).
		Msg("configuration resolved")

	store := catalog.NewStore()
	stats, err := catalog.LoadFile(cfg.Catalog.File, store)
	if err != nil {
		return err
	}
	log.Info().
		Str("file", cfg.Catalog.File).
		Int("books", stats.Books).
		Int("members", stats.Members).
		Msg("catalog loaded")
	if stats.Skipped > 0 {
		log.Warn().
			Str("file", cfg.Catalog.File).
			Int("skipped", stats.Skipped).
			Msg("catalog contained unreadable lines")
	}

	if cfg.Catalog.LoansFile != "" {
		lstats, err := catalog.LoadLoansFile(cfg.Catalog.LoansFile, store)
		if err != nil {
			return err
		}
		log.Info().
			Str("file", cfg.Catalog.LoansFile).
			Int("loans", lstats.Loans).
			Msg("loan ledger loaded")
		if lstats.Skipped > 0 {
			log.Warn().
				Str("file", cfg.Catalog.LoansFile).
				Int("skipped", lstats.Skipped).
				Msg("loan ledger contained unusable records")
		}
	}

	sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout(), store,
		cfg.Catalog.File, cfg.Catalog.LoansFile, log)
	return sh.run()
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a catalog-format file into the catalog",
		Long: `Import reads BOOK and MEMBER records from the given file, merges them
into the catalog (records replace existing entries with the same id) and
saves the result. The loan ledger is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}
}

func runImport(cmd *cobra.Command, opts *options, path string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store := catalog.NewStore()
	cstats, err := catalog.LoadFile(cfg.Catalog.File, store)
	if err != nil {
		return err
	}
	if cstats.Skipped > 0 {
		log.Warn().
			Str("file", cfg.Catalog.File).
			Int("skipped", cstats.Skipped).
			Msg("catalog contained unreadable lines")
	}

	// The ledger is read but never rewritten; it is loaded only so the
	// merge can warn when it replaces a book that still has copies out.
	loaned := make(map[string]*catalog.Book)
	if cfg.Catalog.LoansFile != "" {
		if _, err := catalog.LoadLoansFile(cfg.Catalog.LoansFile, store); err != nil {
			return err
		}
		for _, l := range store.Loans() {
			loaned[l.BookID] = store.FindBook(l.BookID)
		}
	}

	// Unlike the catalog itself, the import source must exist.
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	stats, err := catalog.Load(f, store)
	f.Close()
	if err != nil {
		return err
	}

	for id, before := range loaned {
		if store.FindBook(id) != before {
			log.Warn().
				Str("book", id).
				Int("loans", store.LoanCount(id)).
				Msg("import replaced a book with active loans")
		}
	}

	if err := catalog.SaveFile(cfg.Catalog.File, store); err != nil {
		return err
	}
	log.Info().
		Str("from", path).
		Str("file", cfg.Catalog.File).
		Int("books", stats.Books).
		Int("members", stats.Members).
		Int("skipped", stats.Skipped).
		Msg("import complete")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d book(s) and %d member(s) from %s (%d line(s) skipped).\n",
		stats.Books, stats.Members, path, stats.Skipped)
	fmt.Fprintf(out, "Catalog now holds %d book(s) and %d member(s).\n",
		len(store.Books()), len(store.Members()))
	return nil
}
