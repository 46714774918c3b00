package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/capitals/internal/persistence"
	"github.com/roach88/capitals/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Unit     string
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show committed countries, capitals and the transaction log",
		Long: `Read back what has been committed to a persistence unit.

Example:
  capitals show
  capitals show --db /tmp/capitals.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Unit, "unit", "u", persistence.DefaultUnitName, "persistence unit name")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (bypasses the config file)")

	return usageErrors(cmd)
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	unit, err := resolveUnit(opts.RootOptions, opts.Unit, opts.Database)
	if err != nil {
		return out.Fail("failed to resolve persistence unit", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, unit, store.WithLogger(log))
	if err != nil {
		return out.Fail("failed to open persistence unit", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()

	countries, err := st.ReadCountries(ctx)
	if err != nil {
		return out.Fail("failed to read countries", err)
	}
	entries, err := st.ReadLog(ctx)
	if err != nil {
		return out.Fail("failed to read transaction log", err)
	}

	summary := showSummary{
		Unit:  unit.Name,
		Pairs: make([]pairSummary, len(countries)),
		Log:   entries,
	}
	for i, c := range countries {
		summary.Pairs[i] = pairSummary{Country: c.Name, CountryID: c.ID}
		if c.Capital != nil {
			summary.Pairs[i].Capital = c.Capital.Name
			summary.Pairs[i].CapitalID = c.Capital.ID
		}
	}

	return out.Success(summary)
}

type showSummary struct {
	Unit  string           `json:"unit"`
	Pairs []pairSummary    `json:"pairs"`
	Log   []store.LogEntry `json:"log"`
}

func (s showSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unit %q: %d countries", s.Unit, len(s.Pairs))
	for _, p := range s.Pairs {
		if p.Capital == "" {
			fmt.Fprintf(&b, "\n  %s (#%d) <-> (no capital)", p.Country, p.CountryID)
			continue
		}
		fmt.Fprintf(&b, "\n  %s (#%d) <-> %s (#%d)", p.Country, p.CountryID, p.Capital, p.CapitalID)
	}
	fmt.Fprintf(&b, "\nTransaction log: %d commits", len(s.Log))
	for _, e := range s.Log {
		fmt.Fprintf(&b, "\n  %d  %s  %d entities  %s", e.Seq, e.RunID, e.Entities, e.CommittedAt)
	}
	return b.String()
}
