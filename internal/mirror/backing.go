package mirror

import (
	"context"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// Backing is the narrow synchronous contract the mirror consumes. The
// mirror forwards every mutation here before touching its own state and
// re-queries through Select to resolve predicate-matched rows.
//
// Predicates are opaque textual conditions in whatever syntax the
// driver's store understands ("" selects everything). The mirror never
// parses or validates them; it only forwards them.
//
// Implementations must return rows whose cells reference the canonical
// column descriptors of the table definition they were opened with, so
// derived keys line up with the mirror's own.
type Backing interface {
	// Insert writes one row given parallel column and value slices.
	Insert(ctx context.Context, table string, cols []*schema.Column, vals []value.Value) error

	// Update applies assign's cell values to EVERY row of the table.
	// Whole-table semantics, not a by-key update.
	Update(ctx context.Context, table string, assign *row.Row) error

	// UpdateWhere applies assign's cell values to the rows matching the
	// predicate.
	UpdateWhere(ctx context.Context, table string, assign *row.Row, predicate string) error

	// Select returns the rows matching the predicate, in a stable
	// storage order.
	Select(ctx context.Context, table string, predicate string, cols []*schema.Column) ([]*row.Row, error)

	// DeleteWhere removes the rows matching the predicate.
	DeleteWhere(ctx context.Context, table string, predicate string) error
}
