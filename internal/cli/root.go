package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/capitals/internal/config"
	"github.com/roach88/capitals/internal/persistence"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to the persistence unit config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the capitals CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "capitals",
		Short: "capitals - persist countries and their capitals",
		Long:  "Seeds a persistence unit with linked country/capital pairs in a single transaction.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", config.DefaultPath, "persistence unit config file (.yaml or .cue)")

	cmd.AddCommand(NewBootstrapCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewUnitsCommand(opts))

	return usageErrors(cmd)
}

// Execute runs cmd and returns the process exit code. Errors that no
// command reported itself (unknown subcommands) are printed to stderr and
// treated as command errors.
func Execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return ExitCommandError
	}
	// Errors with a cause were already reported through the formatter.
	if exitErr.Err == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", exitErr.Message)
	}
	return exitErr.Code
}

// usageErrors makes flag parsing and argument validation failures on cmd
// return ExitCommandError.
func usageErrors(cmd *cobra.Command) *cobra.Command {
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return NewExitError(ExitCommandError, err.Error())
	})
	if validate := cmd.Args; validate != nil {
		cmd.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return nil
		}
	}
	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger builds the diagnostic logger. Logs always go to w (stderr),
// never to the command's output stream.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveUnit returns the named unit from the config file. A non-empty
// database bypasses the config file with an ad-hoc sqlite3 unit.
func resolveUnit(opts *RootOptions, name, database string) (persistence.Unit, error) {
	if database != "" {
		return persistence.Unit{Name: name, Database: database}.WithDefaults(), nil
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return persistence.Unit{}, err
	}
	return cfg.Unit(name)
}
