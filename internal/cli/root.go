package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	Database   string
	CatalogDir string
	Theme      string
	MaxSites   int

	// Logger is built from the config and --verbose before any subcommand
	// runs. Nil means discard.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the protoboard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	defaults := DefaultConfig()

	cmd := &cobra.Command{
		Use:   "protoboard",
		Short: "protoboard - component boards with propagating edits",
		Long: `Apply mutation scripts to a persisted workspace of component boards.

Edits to a Variant propagate to every structurally corresponding Instance.
Snapshots are stored per version in SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return applyConfig(cmd, opts)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", DefaultConfigPath, "path to TOML config file")
	flags.StringVar(&opts.Database, "db", defaults.Database, "path to SQLite database")
	flags.StringVar(&opts.CatalogDir, "catalog", defaults.CatalogDir, "CUE catalog directory")
	flags.StringVar(&opts.Theme, "theme", defaults.DefaultTheme, "default theme id")
	flags.IntVar(&opts.MaxSites, "max-sites", defaults.MaxSites, "propagation site limit per mutation (0 disables)")

	// Add subcommands
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyConfig loads the config file and fills every setting whose flag was
// not given explicitly. Flags win over the file; the file wins over defaults.
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	flags := cmd.Flags()
	cfg, err := LoadConfig(opts.ConfigPath, flags.Changed("config"))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if !flags.Changed("db") {
		opts.Database = cfg.Database
	}
	if !flags.Changed("catalog") {
		opts.CatalogDir = cfg.CatalogDir
	}
	if !flags.Changed("theme") {
		opts.Theme = cfg.DefaultTheme
	}
	if !flags.Changed("max-sites") {
		opts.MaxSites = cfg.MaxSites
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// logger returns the configured logger, or one that discards everything
// when the command runs without the root's pre-run hook.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// formatter builds an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
