package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowmirror/rowmirror/internal/value"
)

func pkCol(name string, index int) *Column {
	return NewColumn(name, index, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})
}

func TestColumn_Equal(t *testing.T) {
	a := NewColumn("id", 0, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})
	b := NewColumn("id", 0, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(NewColumn("id", 1, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})))
	assert.False(t, a.Equal(NewColumn("uid", 0, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})))
	assert.False(t, a.Equal(NewColumn("id", 0, value.KindText, Constraint{Kind: ConstraintPrimaryKey})))
	assert.False(t, a.Equal(NewColumn("id", 0, value.KindInt)))
}

func TestColumn_Equal_ConstraintOrderSensitive(t *testing.T) {
	// Positional comparison: same constraint set, different declaration
	// order, unequal columns. Pinned on purpose.
	a := NewColumn("email", 1, value.KindText,
		Constraint{Kind: ConstraintNotNull}, Constraint{Kind: ConstraintUnique})
	b := NewColumn("email", 1, value.KindText,
		Constraint{Kind: ConstraintUnique}, Constraint{Kind: ConstraintNotNull})

	assert.False(t, a.Equal(b))
}

func TestColumn_Clone_ConstraintsIndependent(t *testing.T) {
	a := NewColumn("id", 0, value.KindInt, Constraint{Kind: ConstraintPrimaryKey})
	c := a.Clone()

	require.True(t, a.Equal(c))

	// Mutating the copy's constraint slice must not reach the original.
	got := c.Constraints()
	got[0] = Constraint{Kind: ConstraintUnique}
	assert.True(t, a.HasConstraint(ConstraintPrimaryKey))
}

func TestCell_SetValue_DoesNotAliasColumnSharers(t *testing.T) {
	col := pkCol("id", 0)
	a := NewCell(col, value.Int(1))
	b := NewCell(col, value.Int(1))

	a.SetValue(value.Int(99))

	got, ok := b.Value().IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(1), got, "cells share the column, never the value")
}

func TestCell_Clone(t *testing.T) {
	col := pkCol("id", 0)
	a := NewCell(col, value.Int(1))
	c := a.Clone()

	require.True(t, a.Equal(c))
	assert.Same(t, a.Column(), c.Column(), "column descriptor stays shared")

	c.SetValue(value.Int(2))
	assert.False(t, a.Equal(c))
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable("users", []*Column{pkCol("id", 1)})
	assert.Error(t, err, "ordinal must match position")

	_, err = NewTable("users", []*Column{pkCol("id", 0), pkCol("id", 1)})
	assert.Error(t, err, "duplicate names rejected")

	_, err = NewTable("users", nil)
	assert.Error(t, err)
}

func TestTable_Lookups(t *testing.T) {
	tbl, err := NewTable("users", []*Column{
		pkCol("id", 0),
		NewColumn("name", 1, value.KindText),
	})
	require.NoError(t, err)

	col, err := tbl.Column("name")
	require.NoError(t, err)
	assert.Equal(t, 1, col.Index())

	_, err = tbl.Column("missing")
	assert.Error(t, err)

	_, err = tbl.ColumnAt(2)
	assert.Error(t, err)

	pks := tbl.PrimaryKeyColumns()
	require.Len(t, pks, 1)
	assert.Equal(t, "id", pks[0].Name())
}
