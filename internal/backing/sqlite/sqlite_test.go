package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

func testTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("users", []*schema.Column{
		schema.NewColumn("id", 0, value.KindInt, schema.Constraint{Kind: schema.ConstraintPrimaryKey}),
		schema.NewColumn("name", 1, value.KindText, schema.Constraint{Kind: schema.ConstraintNotNull}),
		schema.NewColumn("active", 2, value.KindBool),
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	return tbl
}

func openStore(t *testing.T) (*Store, *schema.Table) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tbl := testTable(t)
	if err := s.EnsureTable(context.Background(), tbl); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}
	return s, tbl
}

func insertUser(t *testing.T, s *Store, tbl *schema.Table, id int64, name string, active bool) {
	t.Helper()
	err := s.Insert(context.Background(), tbl.Name(), tbl.Columns(), []value.Value{
		value.Int(id), value.Text(name), value.Bool(active),
	})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestEnsureTable_Idempotent(t *testing.T) {
	s, tbl := openStore(t)

	for i := 0; i < 3; i++ {
		if err := s.EnsureTable(context.Background(), tbl); err != nil {
			t.Fatalf("EnsureTable() iteration %d failed: %v", i, err)
		}
	}
}

func TestInsertSelect_RoundTrip(t *testing.T) {
	s, tbl := openStore(t)
	insertUser(t, s, tbl, 1, "ada", true)
	insertUser(t, s, tbl, 2, "bob", false)

	rows, err := s.Select(context.Background(), tbl.Name(), "", tbl.Columns())
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	v, err := rows[0].Value("name")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if !v.Equal(value.Text("ada")) {
		t.Errorf("name = %s, want ada", v)
	}

	v, err = rows[1].Value("active")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if !v.Equal(value.Bool(false)) {
		t.Errorf("active = %s, want false", v)
	}

	// Keys derive from the canonical descriptors, so lookups line up.
	k, ok := rows[0].Key()
	if !ok {
		t.Fatal("row has no key")
	}
	if !k.Equal(row.SingleValue(value.Int(1))) {
		t.Errorf("key = %s, want (1)", k)
	}
}

func TestSelect_Predicate(t *testing.T) {
	s, tbl := openStore(t)
	insertUser(t, s, tbl, 1, "ada", true)
	insertUser(t, s, tbl, 2, "bob", false)

	rows, err := s.Select(context.Background(), tbl.Name(), "id = 1", tbl.Columns())
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestUpdateWhere_OnlyMatched(t *testing.T) {
	s, tbl := openStore(t)
	insertUser(t, s, tbl, 1, "ada", true)
	insertUser(t, s, tbl, 2, "bob", true)

	nameCol, err := tbl.Column("name")
	if err != nil {
		t.Fatalf("Column() failed: %v", err)
	}
	assign, err := row.New([]*schema.Cell{schema.NewCell(nameCol, value.Text("renamed"))})
	if err != nil {
		t.Fatalf("row.New() failed: %v", err)
	}

	if err := s.UpdateWhere(context.Background(), tbl.Name(), assign, "id = 2"); err != nil {
		t.Fatalf("UpdateWhere() failed: %v", err)
	}

	rows, err := s.Select(context.Background(), tbl.Name(), "", tbl.Columns())
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	first, _ := rows[0].Value("name")
	second, _ := rows[1].Value("name")
	if !first.Equal(value.Text("ada")) {
		t.Errorf("row 1 name = %s, want ada", first)
	}
	if !second.Equal(value.Text("renamed")) {
		t.Errorf("row 2 name = %s, want renamed", second)
	}
}

func TestDeleteWhere(t *testing.T) {
	s, tbl := openStore(t)
	insertUser(t, s, tbl, 1, "ada", true)
	insertUser(t, s, tbl, 2, "bob", true)

	if err := s.DeleteWhere(context.Background(), tbl.Name(), "id = 1"); err != nil {
		t.Fatalf("DeleteWhere() failed: %v", err)
	}

	rows, err := s.Select(context.Background(), tbl.Name(), "", tbl.Columns())
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	v, _ := rows[0].Value("id")
	if !v.Equal(value.Int(2)) {
		t.Errorf("surviving id = %s, want 2", v)
	}
}

func TestInsert_PrimaryKeyViolation(t *testing.T) {
	s, tbl := openStore(t)
	insertUser(t, s, tbl, 1, "ada", true)

	err := s.Insert(context.Background(), tbl.Name(), tbl.Columns(), []value.Value{
		value.Int(1), value.Text("dup"), value.Bool(true),
	})
	if err == nil {
		t.Fatal("duplicate primary key insert should fail")
	}
}

func TestEnsureTable_CompositeKeyAndDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	tbl, err := schema.NewTable("memberships", []*schema.Column{
		schema.NewColumn("org", 0, value.KindInt, schema.Constraint{Kind: schema.ConstraintPrimaryKey}),
		schema.NewColumn("user", 1, value.KindInt, schema.Constraint{Kind: schema.ConstraintPrimaryKey}),
		schema.NewColumn("role", 2, value.KindText,
			schema.Constraint{Kind: schema.ConstraintDefault, Default: value.Text("member")}),
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	if err := s.EnsureTable(context.Background(), tbl); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}

	cols := tbl.Columns()
	err = s.Insert(context.Background(), tbl.Name(), cols[:2], []value.Value{
		value.Int(10), value.Int(20),
	})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	rows, err := s.Select(context.Background(), tbl.Name(), "", cols)
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	v, _ := rows[0].Value("role")
	if !v.Equal(value.Text("member")) {
		t.Errorf("role = %s, want default member", v)
	}
	k, ok := rows[0].Key()
	if !ok || k.Arity() != 2 {
		t.Errorf("expected composite key, got %v (ok=%v)", k, ok)
	}
}
