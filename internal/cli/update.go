package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Sets  []string // column=value assignments
	Where string   // predicate forwarded to the store
	All   bool     // update every row
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update --set col=value [--set col=value]... (--where <predicate> | --all)",
		Short: "Update matched rows in the store and the cache",
		Long: `Update rows through the store and the cache in lockstep. --where
narrows the update to the rows matching the predicate; --all applies
the assignment to every row of the table. Exactly one of the two must
be given. Key columns cannot be assigned.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "column=value assignment (repeatable)")
	cmd.Flags().StringVar(&opts.Where, "where", "", "predicate selecting the rows to update")
	cmd.Flags().BoolVar(&opts.All, "all", false, "update every row of the table")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions) error {
	if len(opts.Sets) == 0 {
		return fmt.Errorf("at least one --set is required")
	}
	if opts.All == (opts.Where != "") {
		return fmt.Errorf("exactly one of --where or --all is required")
	}

	m, tbl, closeStore, err := openMirror(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	assign, err := assignFromSets(tbl, opts.Sets)
	if err != nil {
		return err
	}

	if opts.All {
		err = m.PointUpdate(cmd.Context(), assign)
	} else {
		err = m.ConditionalUpdate(cmd.Context(), assign, opts.Where)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "updated")
	return nil
}

// assignFromSets parses --set col=value pairs into a partial row over
// the named columns.
func assignFromSets(tbl *schema.Table, sets []string) (*row.Row, error) {
	cells := make([]*schema.Cell, 0, len(sets))
	for _, set := range sets {
		name, literal, ok := strings.Cut(set, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --set %q: want column=value", set)
		}
		col, err := tbl.Column(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := value.Parse(col.Kind(), strings.TrimSpace(literal))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		cells = append(cells, schema.NewCell(col, v))
	}
	return row.New(cells)
}
