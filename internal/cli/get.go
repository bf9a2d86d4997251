package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key-value>...",
		Short: "Look up one cached row by primary key",
		Long: `Look up one row by primary key. Pass one value per key column in
declaration order: a single value for a scalar key, several for a
composite key.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, opts *GetOptions, args []string) error {
	m, tbl, closeStore, err := openMirror(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	key, err := keyFromArgs(tbl, args)
	if err != nil {
		return err
	}

	r, err := m.GetByKey(key)
	if err != nil {
		return err
	}

	out, err := renderRows(opts.Format, tbl, []*row.Row{r})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// keyFromArgs parses one textual value per primary-key column, in
// declaration order, into a lookup key.
func keyFromArgs(tbl *schema.Table, args []string) (row.Key, error) {
	pks := tbl.PrimaryKeyColumns()
	if len(pks) == 0 {
		return row.Key{}, fmt.Errorf("table %q declares no primary key", tbl.Name())
	}
	if len(args) != len(pks) {
		return row.Key{}, fmt.Errorf("table %q has a %d-column key, got %d values",
			tbl.Name(), len(pks), len(args))
	}

	vals := make([]value.Value, len(pks))
	for i, col := range pks {
		v, err := value.Parse(col.Kind(), args[i])
		if err != nil {
			return row.Key{}, fmt.Errorf("key column %q: %w", col.Name(), err)
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return row.Single(pks[0], vals[0]), nil
	}
	return row.Composite(pks, vals)
}
