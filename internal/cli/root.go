package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/empsearch/internal/config"
	"github.com/rshade/empsearch/internal/logging"
	"github.com/rshade/empsearch/internal/resultset"
	"github.com/rshade/empsearch/internal/tui"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	debug      bool
	driver     string
	dsn        string
	cacheDir   string
	compress   bool
	format     string
	browse     bool
}

// app is the state shared between the root command and its subcommands for one run.
type app struct {
	flags     rootFlags
	cfg       *config.Config
	logger    zerolog.Logger
	logResult *logging.LogPathResult

	// base is the untagged logger handed to the session, which tags its own components.
	base zerolog.Logger
}

// NewRootCmd creates the root command. Run without a subcommand it starts the interactive
// search loop.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{logger: zerolog.Nop(), base: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:     "empsearch",
		Short:   "Search employees by name or tenure, with cached results",
		Long:    "empsearch looks employees up by name or years of tenure. Query results are cached on disk, keyed by a SHA-256 fingerprint of the query.",
		Version: ver,
		Example: rootCmdExample,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.cleanupLogging()
		},
		RunE: a.runInteractive,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.flags.configPath, "config", "c", "", "config file (default: ./empsearch.yaml or ./empsearch.toml)")
	f.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")
	f.StringVar(&a.flags.driver, "driver", "", "database driver: mysql, postgres or sqlite")
	f.StringVar(&a.flags.dsn, "dsn", "", "database data source name")
	f.StringVar(&a.flags.cacheDir, "cache-dir", "", "query cache directory")
	f.BoolVar(&a.flags.compress, "compress", false, "zstd-compress new cache entries")
	f.StringVarP(&a.flags.format, "format", "o", "", "output format: csv or table")
	f.BoolVar(&a.flags.browse, "browse", false, "browse results interactively when attached to a terminal")

	cmd.AddCommand(newSearchCmd(a), newCacheCmd(a), newDBCmd(a))
	return cmd
}

const rootCmdExample = `  # Start the interactive search loop
  empsearch

  # Find employees whose name contains 田
  empsearch search name 田

  # Find employees in their third year, as a table
  empsearch search years 3 --format table

  # Remove every cached query result
  empsearch cache clear

  # Create and fill the sample database
  empsearch db seed --dsn file:empsearch.db`

// load resolves the configuration and sets up logging. Flags override file and environment.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = a.flags.driver
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = a.flags.dsn
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = a.flags.cacheDir
	}
	if flags.Changed("compress") {
		cfg.Cache.Compress = a.flags.compress
	}
	if flags.Changed("format") {
		cfg.Output.Format = a.flags.format
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.setupLogging(cmd, cfg.Logging)
	if cfg.Path != "" {
		a.logger.Debug().Ctx(cmd.Context()).Str("path", cfg.Path).Msg("configuration loaded")
	}
	return nil
}

// withSession opens a session for fn and closes it afterwards.
func (a *app) withSession(ctx context.Context, fn func(*Session) error) error {
	s, err := OpenSession(ctx, a.cfg, a.base)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			a.logger.Warn().Ctx(ctx).Err(closeErr).Msg("failed to close session")
		}
	}()
	return fn(s)
}

// rowWriter returns the configured row writer.
func (a *app) rowWriter() (RowWriter, error) {
	w, err := NewRowWriter(a.cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return w, nil
}

// browser returns a browse function when --browse is set and both ends are terminals.
func (a *app) browser(cmd *cobra.Command) func(context.Context, string, []resultset.Row) error {
	if !a.flags.browse || !tui.IsTerminal(cmd.InOrStdin()) || !tui.IsTerminal(cmd.OutOrStdout()) {
		return nil
	}
	return func(ctx context.Context, title string, rows []resultset.Row) error {
		return tui.Browse(ctx, title, rows, tui.EmployeeColumns, cmd.InOrStdin(), cmd.OutOrStdout())
	}
}

func (a *app) runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	write, err := a.rowWriter()
	if err != nil {
		return err
	}
	return a.withSession(ctx, func(s *Session) error {
		it := &Interactive{
			Searcher: s,
			In:       cmd.InOrStdin(),
			Out:      cmd.OutOrStdout(),
			Write:    write,
			Browse:   a.browser(cmd),
		}
		return it.Run(ctx)
	})
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context, ver string) int {
	cmd := NewRootCmd(ver)
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("Error: "+err.Error()))
	}
	return ExitCode(err)
}
