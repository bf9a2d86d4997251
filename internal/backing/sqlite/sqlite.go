// Package sqlite implements the mirror's backing contract on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// Store is a SQLite-backed table store. It satisfies mirror.Backing.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1) // Keep one connection ready

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// EnsureTable creates the table for the given definition if it does not
// exist. Idempotent; an existing table is left untouched, even if its
// shape drifted from the definition.
func (s *Store) EnsureTable(ctx context.Context, t *schema.Table) error {
	var cols []string
	var pk []string
	for _, col := range t.Columns() {
		decl := quoteIdent(col.Name()) + " " + sqlType(col.Kind())
		for _, con := range col.Constraints() {
			switch con.Kind {
			case schema.ConstraintNotNull:
				decl += " NOT NULL"
			case schema.ConstraintUnique:
				decl += " UNIQUE"
			case schema.ConstraintDefault:
				decl += " DEFAULT " + sqlLiteral(con.Default)
			case schema.ConstraintPrimaryKey:
				pk = append(pk, quoteIdent(col.Name()))
			}
		}
		cols = append(cols, decl)
	}
	if len(pk) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(t.Name()), strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", t.Name(), err)
	}
	return nil
}

// Insert writes one row. All values are parameterized, never
// interpolated.
func (s *Store) Insert(ctx context.Context, table string, cols []*schema.Column, vals []value.Value) error {
	if len(cols) != len(vals) {
		return fmt.Errorf("insert %s: %d columns, %d values", table, len(cols), len(vals))
	}
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(vals))
	for i, col := range cols {
		names[i] = quoteIdent(col.Name())
		marks[i] = "?"
		args[i] = vals[i].Raw()
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update applies assign to every row of the table.
func (s *Store) Update(ctx context.Context, table string, assign *row.Row) error {
	return s.update(ctx, table, assign, "")
}

// UpdateWhere applies assign to the rows matching the predicate. The
// predicate is opaque text appended verbatim; assigned values are still
// parameterized.
func (s *Store) UpdateWhere(ctx context.Context, table string, assign *row.Row, predicate string) error {
	return s.update(ctx, table, assign, predicate)
}

func (s *Store) update(ctx context.Context, table string, assign *row.Row, predicate string) error {
	sets := make([]string, assign.Len())
	args := make([]any, assign.Len())
	for i := range assign.Len() {
		col, err := assign.ColumnAt(i)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		v, err := assign.ValueAt(i)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		sets[i] = quoteIdent(col.Name()) + " = ?"
		args[i] = v.Raw()
	}
	q := fmt.Sprintf("UPDATE %s SET %s", quoteIdent(table), strings.Join(sets, ", "))
	if predicate != "" {
		q += " WHERE " + predicate
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

// Select returns the rows matching the predicate ("" selects all).
// Results are ordered by rowid so repeated scans of an unchanged table
// enumerate rows identically.
func (s *Store) Select(ctx context.Context, table string, predicate string, cols []*schema.Column) ([]*row.Row, error) {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = quoteIdent(col.Name())
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), quoteIdent(table))
	if predicate != "" {
		q += " WHERE " + predicate
	}
	q += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var out []*row.Row
	for rows.Next() {
		slots := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range slots {
			ptrs[i] = &slots[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("select %s: scan: %w", table, err)
		}
		cells := make([]*schema.Cell, len(cols))
		for i, col := range cols {
			v, err := value.FromRaw(col.Kind(), slots[i])
			if err != nil {
				return nil, fmt.Errorf("select %s: column %q: %w", table, col.Name(), err)
			}
			cells[i] = schema.NewCell(col, v)
		}
		r, err := row.New(cells)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return out, nil
}

// DeleteWhere removes the rows matching the predicate ("" empties the
// table).
func (s *Store) DeleteWhere(ctx context.Context, table string, predicate string) error {
	q := "DELETE FROM " + quoteIdent(table)
	if predicate != "" {
		q += " WHERE " + predicate
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// sqlType maps a value kind to its SQLite column type. BOOLEAN and
// TIMESTAMP are affinity hints the driver uses when scanning.
func sqlType(k value.Kind) string {
	switch k {
	case value.KindInt:
		return "INTEGER"
	case value.KindFloat:
		return "REAL"
	case value.KindText:
		return "TEXT"
	case value.KindBool:
		return "BOOLEAN"
	case value.KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// sqlLiteral renders a default value into DDL, where parameters are not
// available.
func sqlLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindText, value.KindTime:
		return "'" + strings.ReplaceAll(v.String(), "'", "''") + "'"
	case value.KindBool:
		if b, _ := v.BoolVal(); b {
			return "1"
		}
		return "0"
	default:
		return v.String()
	}
}

// quoteIdent double-quotes an identifier so names that collide with
// keywords stay usable.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
