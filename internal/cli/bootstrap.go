package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/capitals/internal/bootstrap"
	"github.com/roach88/capitals/internal/persistence"
	"github.com/roach88/capitals/internal/store"
)

// BootstrapOptions holds flags for the bootstrap command.
type BootstrapOptions struct {
	*RootOptions
	Unit     string
	Database string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7.
	RunIDs store.RunIDGenerator
}

// NewBootstrapCommand creates the bootstrap command.
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	return newBootstrapCommand(&BootstrapOptions{RootOptions: rootOpts})
}

func newBootstrapCommand(opts *BootstrapOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Persist the France/Paris and Mexico/Mexico City pairs",
		Long: `Persist two linked country/capital pairs in a single transaction.

The persistence unit is resolved from the config file (--config) by name
(--unit). Either all four rows and a transaction log entry are committed,
or nothing is.

Example:
  capitals bootstrap
  capitals bootstrap --unit example --config ./persistence.cue
  capitals bootstrap --db /tmp/capitals.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Unit, "unit", "u", persistence.DefaultUnitName, "persistence unit name")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (bypasses the config file)")

	return usageErrors(cmd)
}

func runBootstrap(opts *BootstrapOptions, cmd *cobra.Command) error {
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	unit, err := resolveUnit(opts.RootOptions, opts.Unit, opts.Database)
	if err != nil {
		return out.Fail("failed to resolve persistence unit", err)
	}
	out.VerboseLog("Using unit %q (%s: %s)", unit.Name, unit.Driver, unit.Database)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := bootstrap.Run(ctx, unit, bootstrap.Options{
		Logger: log,
		RunIDs: opts.RunIDs,
	})
	if err != nil {
		return out.Fail("bootstrap failed", err)
	}

	return out.Success(newBootstrapSummary(res))
}

type bootstrapSummary struct {
	RunID    string        `json:"run_id"`
	Unit     string        `json:"unit"`
	Entities int           `json:"entities"`
	Pairs    []pairSummary `json:"pairs"`
}

type pairSummary struct {
	Country   string `json:"country"`
	CountryID uint   `json:"country_id"`
	Capital   string `json:"capital"`
	CapitalID uint   `json:"capital_id"`
}

func newBootstrapSummary(res *bootstrap.Result) bootstrapSummary {
	s := bootstrapSummary{
		RunID:    res.Log.RunID,
		Unit:     res.Unit,
		Entities: res.Log.Entities,
		Pairs:    make([]pairSummary, len(res.Pairs)),
	}
	for i, p := range res.Pairs {
		s.Pairs[i] = pairSummary{
			Country:   p.Country.Name,
			CountryID: p.Country.ID,
			Capital:   p.Capital.Name,
			CapitalID: p.Capital.ID,
		}
	}
	return s
}

func (s bootstrapSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Committed run %s on unit %q (%d entities)", s.RunID, s.Unit, s.Entities)
	for _, p := range s.Pairs {
		fmt.Fprintf(&b, "\n  %s (#%d) <-> %s (#%d)", p.Country, p.CountryID, p.Capital, p.CapitalID)
	}
	return b.String()
}
