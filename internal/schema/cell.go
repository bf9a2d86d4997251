package schema

import (
	"fmt"

	"github.com/rowmirror/rowmirror/internal/value"
)

// Cell binds one column descriptor to one mutable value. The column is
// shared by reference and fixed for the cell's lifetime; the value slot
// may be replaced any number of times. Kind agreement between the value
// and the column's declared kind is the writer's responsibility; it is
// checked by Row.SetValue, not by construction here.
type Cell struct {
	col *Column
	val value.Value
}

// NewCell constructs a cell over a shared column descriptor.
func NewCell(col *Column, val value.Value) *Cell {
	return &Cell{col: col, val: val.Clone()}
}

// Column returns the shared, read-only column descriptor.
func (c *Cell) Column() *Column { return c.col }

// Value returns the current value.
func (c *Cell) Value() value.Value { return c.val }

// SetValue replaces the value slot. The column never changes.
func (c *Cell) SetValue(v value.Value) { c.val = v.Clone() }

// Clone returns a cell with an independent value slot. The column
// descriptor stays shared.
func (c *Cell) Clone() *Cell {
	return &Cell{col: c.col, val: c.val.Clone()}
}

// Equal requires an equal column and an equal value.
func (c *Cell) Equal(o *Cell) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.col.Equal(o.col) && c.val.Equal(o.val)
}

func (c *Cell) String() string {
	return fmt.Sprintf("%s=%s", c.col.Name(), c.val)
}
