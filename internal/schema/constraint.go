package schema

import (
	"fmt"

	"github.com/rowmirror/rowmirror/internal/value"
)

// ConstraintKind categorizes column constraints. The set is closed; there
// is no process-wide registry to extend it.
type ConstraintKind string

const (
	// ConstraintPrimaryKey marks a column as key-bearing. Rows derive
	// their lookup key from every column carrying this constraint.
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"

	// ConstraintNotNull forbids absent values for the column.
	ConstraintNotNull ConstraintKind = "NOT_NULL"

	// ConstraintUnique requires distinct values across the table.
	ConstraintUnique ConstraintKind = "UNIQUE"

	// ConstraintDefault supplies a fallback value for omitted cells.
	// The only constraint kind that carries a payload.
	ConstraintDefault ConstraintKind = "DEFAULT"
)

// ParseConstraintKind maps a schema-file spelling to a ConstraintKind.
func ParseConstraintKind(s string) (ConstraintKind, error) {
	switch s {
	case "primary_key":
		return ConstraintPrimaryKey, nil
	case "not_null":
		return ConstraintNotNull, nil
	case "unique":
		return ConstraintUnique, nil
	case "default":
		return ConstraintDefault, nil
	default:
		return "", fmt.Errorf("unknown constraint kind %q", s)
	}
}

// Constraint is one constraint attached to a column. Default carries a
// payload value; all other kinds are bare tags.
type Constraint struct {
	Kind    ConstraintKind
	Default value.Value // meaningful only when Kind == ConstraintDefault
}

// Equal reports whether two constraints have the same kind and, for
// Default, the same payload.
func (c Constraint) Equal(o Constraint) bool {
	if c.Kind != o.Kind {
		return false
	}
	if c.Kind == ConstraintDefault {
		return c.Default.Equal(o.Default)
	}
	return true
}

func (c Constraint) String() string {
	if c.Kind == ConstraintDefault {
		return fmt.Sprintf("%s(%s)", c.Kind, c.Default)
	}
	return string(c.Kind)
}
