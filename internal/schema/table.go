package schema

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rowmirror/rowmirror/internal/value"
)

// Table is the validated definition of one backing table: a name plus
// columns in declaration order. The column descriptors it holds are the
// canonical shared instances; every cell of every row built against this
// table points at them.
type Table struct {
	name   string
	cols   []*Column
	byName map[string]int
}

// NewTable validates and assembles a table definition. Column ordinals
// must be dense and match slice position; names must be unique.
func NewTable(name string, cols []*Column) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name must not be empty")
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q: at least one column required", name)
	}
	byName := make(map[string]int, len(cols))
	for i, col := range cols {
		if col.Index() != i {
			return nil, fmt.Errorf("table %q: column %q has ordinal %d, want %d",
				name, col.Name(), col.Index(), i)
		}
		if _, dup := byName[col.Name()]; dup {
			return nil, fmt.Errorf("table %q: duplicate column name %q", name, col.Name())
		}
		byName[col.Name()] = i
	}
	return &Table{name: name, cols: cols, byName: byName}, nil
}

// Name returns the backing table name.
func (t *Table) Name() string { return t.name }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.cols) }

// ColumnAt returns the canonical descriptor at ordinal i.
func (t *Table) ColumnAt(i int) (*Column, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, fmt.Errorf("column index %d out of bounds [0, %d)", i, len(t.cols))
	}
	return t.cols[i], nil
}

// Column returns the canonical descriptor with the given name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("table %q has no column %q", t.name, name)
	}
	return t.cols[i], nil
}

// Columns returns the canonical descriptors in declaration order. The
// slice is a copy; the descriptors are shared.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// PrimaryKeyColumns returns the key-bearing columns in declaration
// order. Empty when the table declares no primary key.
func (t *Table) PrimaryKeyColumns() []*Column {
	var out []*Column
	for _, col := range t.cols {
		if col.IsPrimaryKey() {
			out = append(out, col)
		}
	}
	return out
}

// tableFile is the YAML shape of a table definition file.
type tableFile struct {
	Table   string       `yaml:"table"`
	Columns []columnFile `yaml:"columns"`
}

type columnFile struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Constraints []string `yaml:"constraints,omitempty"`

	// Default, when present, appends a DEFAULT constraint carrying the
	// literal parsed under the column's declared type.
	Default *string `yaml:"default,omitempty"`
}

// Load parses and validates a YAML table definition. Unknown fields are
// rejected so a typo in a definition file fails loudly instead of being
// silently dropped.
func Load(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file tableFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse table definition: %w", err)
	}

	cols := make([]*Column, 0, len(file.Columns))
	for i, cf := range file.Columns {
		kind, err := value.ParseKind(cf.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", cf.Name, err)
		}
		var cons []Constraint
		seen := make(map[ConstraintKind]bool)
		for _, spelling := range cf.Constraints {
			ck, err := ParseConstraintKind(spelling)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cf.Name, err)
			}
			if ck == ConstraintDefault {
				return nil, fmt.Errorf("column %q: declare defaults via the default field, not the constraint list", cf.Name)
			}
			if seen[ck] {
				return nil, fmt.Errorf("column %q: duplicate constraint %s", cf.Name, ck)
			}
			seen[ck] = true
			cons = append(cons, Constraint{Kind: ck})
		}
		if cf.Default != nil {
			dv, err := value.Parse(kind, *cf.Default)
			if err != nil {
				return nil, fmt.Errorf("column %q default: %w", cf.Name, err)
			}
			cons = append(cons, Constraint{Kind: ConstraintDefault, Default: dv})
		}
		cols = append(cols, NewColumn(cf.Name, i, kind, cons...))
	}

	return NewTable(file.Table, cols)
}

// LoadFile reads and parses a YAML table definition from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table definition: %w", err)
	}
	t, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
