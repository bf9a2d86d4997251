package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "insert <value>...",
		Short:         "Insert one row, one value per column in declaration order",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd, opts, args)
		},
	}

	return cmd
}

func runInsert(cmd *cobra.Command, opts *InsertOptions, args []string) error {
	m, tbl, closeStore, err := openMirror(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	r, err := rowFromArgs(tbl, args)
	if err != nil {
		return err
	}

	if err := m.Insert(cmd.Context(), r); err != nil {
		return err
	}

	if k, ok := r.Key(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %s\n", k)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "inserted (no key)")
	}
	return nil
}

// rowFromArgs parses one textual value per table column, in declaration
// order, into a full row.
func rowFromArgs(tbl *schema.Table, args []string) (*row.Row, error) {
	if len(args) != tbl.NumColumns() {
		return nil, fmt.Errorf("table %q has %d columns, got %d values",
			tbl.Name(), tbl.NumColumns(), len(args))
	}
	cells := make([]*schema.Cell, len(args))
	for i, col := range tbl.Columns() {
		v, err := value.Parse(col.Kind(), args[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		cells[i] = schema.NewCell(col, v)
	}
	return row.New(cells)
}
