// Package cli implements the rowmirror command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowmirror/rowmirror/internal/backing/sqlite"
	"github.com/rowmirror/rowmirror/internal/mirror"
	"github.com/rowmirror/rowmirror/internal/schema"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB      string // SQLite database path
	Schema  string // table definition YAML path
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rowmirror CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rowmirror",
		Short: "In-memory row cache over a SQLite table",
		Long: `rowmirror loads a table from a SQLite database into an in-memory
mirror keyed by primary key, and applies inserts, updates, and deletes
through the store and the cache in lockstep.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			} else {
				slog.SetLogLoggerLevel(slog.LevelWarn)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "rowmirror.db", "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "table.yaml", "table definition file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

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

// openMirror loads the table definition, opens the database, and
// returns a loaded mirror. The returned closer owns the store handle.
func openMirror(ctx context.Context, opts *RootOptions) (*mirror.Mirror, *schema.Table, func() error, error) {
	tbl, err := schema.LoadFile(opts.Schema)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := sqlite.Open(opts.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := store.EnsureTable(ctx, tbl); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	m := mirror.New(tbl, store)
	if err := m.Load(ctx); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return m, tbl, store.Close, nil
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
