package row

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// ErrKeyColumnWrite is returned by SetValue when the target column is
// key-bearing. The derived key is computed once at construction and
// never silently recomputed; writes that change a row's identity must
// go through the mirror's Rekey, which also repairs the key index.
var ErrKeyColumnWrite = errors.New("column is key-bearing; use Rekey to change key values")

// Row is a fixed-arity ordered sequence of cells plus the key derived
// from its primary-key columns (nil when no column is key-bearing).
// Cell order is fixed at construction and defines column
// correspondence. Rows are always cloned across ownership boundaries;
// the mirror never stores a row a caller still holds.
type Row struct {
	cells []*schema.Cell
	key   *Key
}

// New constructs a row from cells, cloning every input cell and
// deriving the key. The caller's cells remain independently mutable.
func New(cells []*schema.Cell) (*Row, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("row requires at least one cell")
	}
	owned := make([]*schema.Cell, len(cells))
	for i, c := range cells {
		if c == nil {
			return nil, fmt.Errorf("cell %d is nil", i)
		}
		owned[i] = c.Clone()
	}
	r := &Row{cells: owned}
	r.key = deriveKey(owned)
	return r, nil
}

// deriveKey scans cells in order and collects the key-bearing ones.
// Exactly one yields the Single fast path; two or more yield a
// Composite preserving relative column order; none yields no key.
func deriveKey(cells []*schema.Cell) *Key {
	var keyCells []*schema.Cell
	for _, c := range cells {
		if c.Column().IsPrimaryKey() {
			keyCells = append(keyCells, c)
		}
	}
	switch len(keyCells) {
	case 0:
		return nil
	case 1:
		k := Single(keyCells[0].Column(), keyCells[0].Value())
		return &k
	default:
		cols := make([]*schema.Column, len(keyCells))
		vals := make([]value.Value, len(keyCells))
		for i, c := range keyCells {
			cols[i] = c.Column()
			vals[i] = c.Value()
		}
		k, err := Composite(cols, vals)
		if err != nil {
			// Unreachable: lengths match and len >= 2 by construction.
			panic(err)
		}
		return &k
	}
}

// Len returns the number of cells.
func (r *Row) Len() int { return len(r.cells) }

// Key returns the derived key, or (Key{}, false) when the row has none.
func (r *Row) Key() (Key, bool) {
	if r.key == nil {
		return Key{}, false
	}
	return r.key.Clone(), true
}

// CellAt returns a clone of the cell at ordinal i.
func (r *Row) CellAt(i int) (*schema.Cell, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, fmt.Errorf("cell index %d out of bounds [0, %d)", i, len(r.cells))
	}
	return r.cells[i].Clone(), nil
}

// Cell returns a clone of the cell whose column has the given name.
func (r *Row) Cell(name string) (*schema.Cell, error) {
	c, err := r.cell(name)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (r *Row) cell(name string) (*schema.Cell, error) {
	for _, c := range r.cells {
		if c.Column().Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("row has no column %q", name)
}

// ColumnAt returns the shared column descriptor at ordinal i.
func (r *Row) ColumnAt(i int) (*schema.Column, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, fmt.Errorf("cell index %d out of bounds [0, %d)", i, len(r.cells))
	}
	return r.cells[i].Column(), nil
}

// Column returns the shared column descriptor with the given name.
func (r *Row) Column(name string) (*schema.Column, error) {
	c, err := r.cell(name)
	if err != nil {
		return nil, err
	}
	return c.Column(), nil
}

// ValueAt returns the value at ordinal i.
func (r *Row) ValueAt(i int) (value.Value, error) {
	if i < 0 || i >= len(r.cells) {
		return value.Value{}, fmt.Errorf("cell index %d out of bounds [0, %d)", i, len(r.cells))
	}
	return r.cells[i].Value(), nil
}

// Value returns the value of the column with the given name.
func (r *Row) Value(name string) (value.Value, error) {
	c, err := r.cell(name)
	if err != nil {
		return value.Value{}, err
	}
	return c.Value(), nil
}

// SetValue replaces the value of the named column in place. The value's
// kind must match the column's declared kind, and the column must not
// be key-bearing (ErrKeyColumnWrite otherwise): identity changes go
// through Rekey so the derived key can never go stale against the cell
// it was built from.
func (r *Row) SetValue(name string, v value.Value) error {
	c, err := r.cell(name)
	if err != nil {
		return err
	}
	if c.Column().IsPrimaryKey() {
		return fmt.Errorf("set %q: %w", name, ErrKeyColumnWrite)
	}
	if v.Kind() != c.Column().Kind() {
		return fmt.Errorf("set %q: value kind %s does not match column kind %s",
			name, v.Kind(), c.Column().Kind())
	}
	c.SetValue(v)
	return nil
}

// SetKeyValue replaces the value of a key-bearing column and re-derives
// the row's key as one step. The mirror's Rekey wraps this to also move
// the row's index entry; calling it on a clone handed out by the mirror
// only affects the clone.
func (r *Row) SetKeyValue(name string, v value.Value) error {
	c, err := r.cell(name)
	if err != nil {
		return err
	}
	if !c.Column().IsPrimaryKey() {
		return fmt.Errorf("set %q: column is not key-bearing", name)
	}
	if v.Kind() != c.Column().Kind() {
		return fmt.Errorf("set %q: value kind %s does not match column kind %s",
			name, v.Kind(), c.Column().Kind())
	}
	c.SetValue(v)
	r.key = deriveKey(r.cells)
	return nil
}

// Clone returns a deep copy. The key is re-derived, not copied.
func (r *Row) Clone() *Row {
	out, err := New(r.cells)
	if err != nil {
		// Unreachable: r was validated at its own construction.
		panic(err)
	}
	return out
}

// Equal requires equal arity, pairwise-equal cells in order, and equal
// keys.
func (r *Row) Equal(o *Row) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.cells) != len(o.cells) {
		return false
	}
	for i, c := range r.cells {
		if !c.Equal(o.cells[i]) {
			return false
		}
	}
	switch {
	case r.key == nil && o.key == nil:
		return true
	case r.key == nil || o.key == nil:
		return false
	default:
		return r.key.Equal(*o.key)
	}
}

// String renders cells tab-separated for logs and dumps.
func (r *Row) String() string {
	parts := make([]string, len(r.cells))
	for i, c := range r.cells {
		parts[i] = c.Value().String()
	}
	return strings.Join(parts, "\t")
}
