// Package cli provides the command-line interface for the trade journal.
package cli

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"forex-journal/internal/audit"
	"forex-journal/internal/config"
	"forex-journal/internal/journal"
	"forex-journal/internal/logging"
	"forex-journal/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.BlobStore
	Journal *journal.Service
	Audit   *audit.Logger

	ephemeral bool
}

// Execute builds the command tree, runs it with args and releases the
// store and audit trail afterwards.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := &App{Logger: zerolog.Nop()}
	rootCmd := NewRootCmd(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	defer app.Close()
	return rootCmd.ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the CLI. Configuration and
// logging are set up before any subcommand runs; the store is opened on
// first use.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Forex trade journal with setup and pair analytics",
		Long: `Journal records forex trades with their setup, bias and outcome, and
derives win rates, average risk/reward and monthly or weekly breakdowns.

Trades are stored in a local SQLite database. Use 'journal serve' to expose
the same journal over a JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/forex-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "keep trades in memory only")

	addCoreCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.Config = cfg

	a.ephemeral, _ = cmd.Flags().GetBool("ephemeral")

	lc := logging.FromConfig(cfg.Logging)
	debug, _ := cmd.Flags().GetBool("debug")
	lc.Console = debug
	if debug {
		lc.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(lc)

	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}

	a.Logger.Debug().Str("config_dir", cfg.Dir).Bool("ephemeral", a.ephemeral).Msg("Configuration loaded")
	return nil
}

// openJournal opens the store and builds the service on first use.
func (a *App) openJournal(ctx context.Context) (*journal.Service, error) {
	if a.Journal != nil {
		return a.Journal, nil
	}

	if a.Store == nil {
		if a.ephemeral {
			a.Store = store.NewMemoryStore()
		} else {
			s, err := store.NewSQLiteStore(a.Config.Storage.DBPath)
			if err != nil {
				return nil, err
			}
			a.Store = s
			a.Logger.Debug().Str("path", a.Config.Storage.DBPath).Msg("SQLite store initialized")
		}
	}

	repo, err := store.NewRepository(ctx, a.Store, a.Config.Storage.Key, a.Logger)
	if err != nil {
		return nil, err
	}

	var opts []journal.Option
	if a.Config.Audit.Enabled && !a.ephemeral {
		al, err := audit.New(audit.DefaultConfig(a.Config.Audit.Dir))
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to open audit log, continuing without it")
		} else {
			a.Audit = al
			opts = append(opts, journal.WithAudit(al))
		}
	}

	a.Journal = journal.NewService(repo, a.Logger, opts...)
	return a.Journal, nil
}

// Close releases the store and audit log.
func (a *App) Close() {
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close audit log")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close store")
		}
	}
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Forex Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.ConfigFile(app.Config.Dir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Storage")
	output.Printf("  Database:        %s\n", cfg.Storage.DBPath)
	output.Printf("  Key:             %s\n", cfg.Storage.Key)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("UI")
	output.Printf("  Color:           %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Recent Count:    %d\n", cfg.UI.RecentCount)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %s\n", OrDash(cfg.Logging.File))
	output.Println()

	output.Bold("Audit")
	output.Printf("  Enabled:         %v\n", cfg.Audit.Enabled)
	output.Printf("  Directory:       %s\n", cfg.Audit.Dir)
}
