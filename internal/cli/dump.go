package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "dump",
		Short:         "Load the table and print every cached row",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, opts)
		},
	}

	return cmd
}

func runDump(cmd *cobra.Command, opts *DumpOptions) error {
	m, tbl, closeStore, err := openMirror(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	var rows []*row.Row
	for r := range m.All() {
		rows = append(rows, r)
	}

	out, err := renderRows(opts.Format, tbl, rows)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// renderRows renders rows in the requested format. Split out so the
// rendering is testable without a database.
func renderRows(format string, tbl *schema.Table, rows []*row.Row) (string, error) {
	if format == "json" {
		return renderJSON(tbl, rows)
	}
	return renderText(tbl, rows), nil
}

// renderText prints a tab-separated header, one row per line, and a
// summary count.
func renderText(tbl *schema.Table, rows []*row.Row) string {
	var b strings.Builder

	names := make([]string, tbl.NumColumns())
	for i, col := range tbl.Columns() {
		names[i] = col.Name()
	}
	b.WriteString(strings.Join(names, "\t"))
	b.WriteByte('\n')

	for _, r := range rows {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "(%d rows)\n", len(rows))
	return b.String()
}

// renderJSON prints rows as an array of objects with native JSON types
// for int, float, bool, and text; time renders as RFC3339 text.
func renderJSON(tbl *schema.Table, rows []*row.Row) (string, error) {
	objects := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		obj := make(map[string]any, r.Len())
		for i := range r.Len() {
			col, err := r.ColumnAt(i)
			if err != nil {
				return "", err
			}
			v, err := r.ValueAt(i)
			if err != nil {
				return "", err
			}
			obj[col.Name()] = jsonValue(v)
		}
		objects = append(objects, obj)
	}

	data, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal rows: %w", err)
	}
	return string(data) + "\n", nil
}

func jsonValue(v value.Value) any {
	switch v.Kind() {
	case value.KindInt, value.KindFloat, value.KindBool:
		return v.Raw()
	default:
		return v.String()
	}
}
