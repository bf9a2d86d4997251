// Package schema defines the declarative table shape the mirror operates
// on: columns with value kinds and constraints, cells binding a column to
// one value, and YAML loading for table definitions.
package schema

import (
	"fmt"
	"slices"

	"github.com/rowmirror/rowmirror/internal/value"
)

// Column describes one table position: name, ordinal index, declared
// value kind, and the constraints attached in declaration order. Columns
// are immutable after construction and shared by reference between the
// canonical table definition and every cell built from it; Clone exists
// for the boundaries that hand a descriptor to outside callers.
type Column struct {
	name        string
	index       int
	kind        value.Kind
	constraints []Constraint
}

// NewColumn constructs a column descriptor. Constraint order is
// preserved; it participates in equality (see Equal).
func NewColumn(name string, index int, kind value.Kind, constraints ...Constraint) *Column {
	return &Column{
		name:        name,
		index:       index,
		kind:        kind,
		constraints: slices.Clone(constraints),
	}
}

// Name returns the column name, unique within its table.
func (c *Column) Name() string { return c.name }

// Index returns the column's ordinal position within its table.
func (c *Column) Index() int { return c.index }

// Kind returns the declared value kind for cells of this column.
func (c *Column) Kind() value.Kind { return c.kind }

// Constraints returns a copy of the constraint list in declaration order.
func (c *Column) Constraints() []Constraint {
	return slices.Clone(c.constraints)
}

// HasConstraint reports whether any attached constraint has the kind.
func (c *Column) HasConstraint(kind ConstraintKind) bool {
	for _, con := range c.constraints {
		if con.Kind == kind {
			return true
		}
	}
	return false
}

// IsPrimaryKey reports whether the column is key-bearing.
func (c *Column) IsPrimaryKey() bool { return c.HasConstraint(ConstraintPrimaryKey) }

// Clone returns an independent descriptor. The canonical definition is
// never handed out directly, so a caller mutating the copy's constraint
// slice cannot corrupt the table definition.
func (c *Column) Clone() *Column {
	return NewColumn(c.name, c.index, c.kind, c.constraints...)
}

// Equal compares (index, name, kind, constraints). Constraint comparison
// is positional, not set-based: the same constraints declared in a
// different order make the columns unequal. Callers that need
// order-insensitive comparison should normalize their declarations.
func (c *Column) Equal(o *Column) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.index != o.index || c.name != o.name || c.kind != o.kind {
		return false
	}
	if len(c.constraints) != len(o.constraints) {
		return false
	}
	for i, con := range c.constraints {
		if !con.Equal(o.constraints[i]) {
			return false
		}
	}
	return true
}

func (c *Column) String() string {
	return fmt.Sprintf("%s %s", c.name, c.kind)
}
