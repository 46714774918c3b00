package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/capitals/internal/config"
	"github.com/roach88/capitals/internal/persistence"
)

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	return usageErrors(&cobra.Command{
		Use:   "units",
		Short: "List the persistence units in the config file",
		Long: `List the persistence units declared in the config file.

Example:
  capitals units
  capitals units --config ./persistence.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUnits(rootOpts, cmd)
		},
	})
}

func listUnits(opts *RootOptions, cmd *cobra.Command) error {
	out := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return out.Fail("failed to load config", err)
	}

	return out.Success(unitList{Units: cfg.Units})
}

type unitList struct {
	Units []persistence.Unit `json:"units"`
}

func (l unitList) String() string {
	if len(l.Units) == 0 {
		return "No persistence units defined."
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDRIVER\tCREATE\tDATABASE")
	for _, u := range l.Units {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", u.Name, u.Driver, u.CreateAllowed(), u.Database)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
