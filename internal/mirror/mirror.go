// Package mirror implements the in-memory row cache that projects one
// table of a backing store: an insertion-ordered row sequence plus a
// key index, kept consistent with the store by forwarding every
// mutation there first and applying it locally only on success.
package mirror

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// Mirror caches the rows of one backing table. Two structures hold the
// same row objects: the insertion-ordered sequence, and the fingerprint
// index over rows that have a key (keyless rows live in the sequence
// only and are unreachable by key lookup). Every operation updates both
// as one logical unit; a read between two mutations never observes one
// structure ahead of the other.
//
// Mirror does no internal locking. All operations on one instance must
// come from a single logical thread of control or be serialized by the
// caller.
//
// Rows cross the Mirror boundary as clones in both directions: a row
// handed out can be mutated freely without corrupting the cache, and a
// row handed in remains the caller's to mutate afterward.
type Mirror struct {
	table   *schema.Table
	backing Backing

	rows  []*row.Row
	index map[string]*row.Row

	loaded     bool
	generation uuid.UUID

	log *slog.Logger
}

// New creates an empty mirror over one table. Load must be called
// before any other operation.
func New(table *schema.Table, backing Backing) *Mirror {
	return &Mirror{
		table:   table,
		backing: backing,
		index:   make(map[string]*row.Row),
		log:     slog.Default().With("table", table.Name()),
	}
}

// Stats summarizes the mirror's cached state.
type Stats struct {
	// Generation identifies the Load pass the contents came from.
	Generation uuid.UUID

	// Rows is the sequence length; Indexed counts key-bearing rows.
	Rows    int
	Indexed int
}

// Stats returns the current cache summary.
func (m *Mirror) Stats() Stats {
	return Stats{Generation: m.generation, Rows: len(m.rows), Indexed: len(m.index)}
}

// Len returns the number of cached rows.
func (m *Mirror) Len() int { return len(m.rows) }

// Generation returns the token stamped by the last successful Load.
func (m *Mirror) Generation() uuid.UUID { return m.generation }

// Load clears and repopulates the cache from a full backing scan. A
// repeat call fully replaces the contents; there is no incremental
// merge. On failure the previous contents remain intact.
func (m *Mirror) Load(ctx context.Context) error {
	fetched, err := m.backing.Select(ctx, m.table.Name(), "", m.table.Columns())
	if err != nil {
		return m.backingErr("full scan failed", err)
	}

	// Build aside, swap at the end: a failed load leaves the old state.
	rows := make([]*row.Row, 0, len(fetched))
	index := make(map[string]*row.Row, len(fetched))
	for _, r := range fetched {
		owned := r.Clone()
		if k, ok := owned.Key(); ok {
			fp := k.Fingerprint()
			if _, dup := index[fp]; dup {
				return &Error{
					Code:    CodeBackingFailure,
					Message: "backing scan returned duplicate key",
					Table:   m.table.Name(),
					Key:     k.String(),
				}
			}
			index[fp] = owned
		}
		rows = append(rows, owned)
	}

	m.rows = rows
	m.index = index
	m.loaded = true
	m.generation = uuid.Must(uuid.NewV7())

	m.log.Info("mirror loaded",
		"rows", len(m.rows),
		"indexed", len(m.index),
		"generation", m.generation)
	return nil
}

// Insert forwards the row to the backing store and, only on success,
// appends it to the sequence and indexes it by key. A keyless row is
// stored in the sequence only. The caller's row is cloned on ingest.
func (m *Mirror) Insert(ctx context.Context, r *row.Row) error {
	if err := m.requireLoaded(); err != nil {
		return err
	}
	if r.Len() != m.table.NumColumns() {
		return &Error{
			Code:    CodeArityMismatch,
			Message: fmt.Sprintf("row has %d cells, table has %d columns", r.Len(), m.table.NumColumns()),
			Table:   m.table.Name(),
		}
	}

	owned := r.Clone()
	key, hasKey := owned.Key()
	var fp string
	if hasKey {
		fp = key.Fingerprint()
		if _, exists := m.index[fp]; exists {
			return &Error{
				Code:    CodeDuplicateKey,
				Message: "key already cached",
				Table:   m.table.Name(),
				Key:     key.String(),
			}
		}
	}

	cols := make([]*schema.Column, owned.Len())
	vals := make([]value.Value, owned.Len())
	for i := range owned.Len() {
		col, err := owned.ColumnAt(i)
		if err != nil {
			return m.internalErr(err)
		}
		v, err := owned.ValueAt(i)
		if err != nil {
			return m.internalErr(err)
		}
		cols[i], vals[i] = col, v
	}

	if err := m.backing.Insert(ctx, m.table.Name(), cols, vals); err != nil {
		return m.backingErr("insert failed", err)
	}

	m.rows = append(m.rows, owned)
	if hasKey {
		m.index[fp] = owned
	}

	m.log.Info("row inserted", "key", keyString(owned), "rows", len(m.rows))
	return nil
}

// PointUpdate forwards an unconditional whole-row update, affecting
// potentially EVERY stored row to match the backing semantics, and
// then applies assign's cell values onto every cached row's matching
// columns. Not a by-key update; use ConditionalUpdate to narrow the
// effect. assign is a partial row over non-key columns.
func (m *Mirror) PointUpdate(ctx context.Context, assign *row.Row) error {
	if err := m.requireLoaded(); err != nil {
		return err
	}
	if err := m.validateAssign(assign); err != nil {
		return err
	}

	if err := m.backing.Update(ctx, m.table.Name(), assign); err != nil {
		return m.backingErr("point update failed", err)
	}

	for _, target := range m.rows {
		if err := applyAssign(target, assign); err != nil {
			return m.internalErr(err)
		}
	}

	m.log.Info("point update applied", "columns", assign.Len(), "rows", len(m.rows))
	return nil
}

// ConditionalUpdate updates the rows matching the predicate. The
// matching rows are enumerated by querying the backing store BEFORE the
// update is forwarded, so the predicate is evaluated against the state
// the caller saw; each matched row's derived key must be present in the
// index, otherwise the whole operation fails with STALE_KEY and nothing
// is mutated anywhere. On success assign's cell values are applied onto
// each matched cached row in place.
func (m *Mirror) ConditionalUpdate(ctx context.Context, assign *row.Row, predicate string) error {
	if err := m.requireLoaded(); err != nil {
		return err
	}
	if err := m.validateAssign(assign); err != nil {
		return err
	}

	targets, err := m.resolvePredicate(ctx, predicate)
	if err != nil {
		return err
	}

	if err := m.backing.UpdateWhere(ctx, m.table.Name(), assign, predicate); err != nil {
		return m.backingErr("conditional update failed", err)
	}

	for _, target := range targets {
		if err := applyAssign(target, assign); err != nil {
			return m.internalErr(err)
		}
	}

	m.log.Info("conditional update applied",
		"predicate", predicate,
		"matched", len(targets),
		"columns", assign.Len())
	return nil
}

// ConditionalDelete deletes the rows matching the predicate. Matching
// rows are enumerated before the delete is forwarded (querying after
// would scan an already-mutated store and find nothing); each matched
// row must resolve in the index or the operation fails with STALE_KEY
// before anything is mutated. On success the matched rows leave both
// the sequence and the index.
func (m *Mirror) ConditionalDelete(ctx context.Context, predicate string) error {
	if err := m.requireLoaded(); err != nil {
		return err
	}

	targets, err := m.resolvePredicate(ctx, predicate)
	if err != nil {
		return err
	}

	if err := m.backing.DeleteWhere(ctx, m.table.Name(), predicate); err != nil {
		return m.backingErr("conditional delete failed", err)
	}

	doomed := make(map[*row.Row]bool, len(targets))
	for _, target := range targets {
		doomed[target] = true
		if k, ok := target.Key(); ok {
			delete(m.index, k.Fingerprint())
		}
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !doomed[r] {
			kept = append(kept, r)
		}
	}
	m.rows = kept

	m.log.Info("conditional delete applied",
		"predicate", predicate,
		"deleted", len(targets),
		"rows", len(m.rows))
	return nil
}

// GetByKey returns a clone of the cached row with the given key, or a
// LOOKUP_MISS error when absent.
func (m *Mirror) GetByKey(k row.Key) (*row.Row, error) {
	if err := m.requireLoaded(); err != nil {
		return nil, err
	}
	target, ok := m.index[k.Fingerprint()]
	if !ok {
		return nil, &Error{
			Code:    CodeLookupMiss,
			Message: "key not cached",
			Table:   m.table.Name(),
			Key:     k.String(),
		}
	}
	return target.Clone(), nil
}

// Rekey changes the value of one key-bearing column of the cached row
// identified by oldKey, re-derives the row's key, and moves its index
// entry, all as one step. This is the only way to change a cached
// row's identity; the generic SetValue path refuses key columns.
//
// Rekey is a local repair operation: it does not forward anything to
// the backing store. Callers that changed the key in the store should
// Rekey to match, or Load to resynchronize wholesale.
func (m *Mirror) Rekey(oldKey row.Key, column string, v value.Value) error {
	if err := m.requireLoaded(); err != nil {
		return err
	}
	target, ok := m.index[oldKey.Fingerprint()]
	if !ok {
		return &Error{
			Code:    CodeLookupMiss,
			Message: "key not cached",
			Table:   m.table.Name(),
			Key:     oldKey.String(),
		}
	}

	// Trial run on a clone so a late failure leaves the row untouched.
	trial := target.Clone()
	if err := trial.SetKeyValue(column, v); err != nil {
		return m.internalWrap("rekey rejected", err)
	}
	newKey, _ := trial.Key()
	newFP := newKey.Fingerprint()
	oldFP := oldKey.Fingerprint()
	if newFP != oldFP {
		if _, taken := m.index[newFP]; taken {
			return &Error{
				Code:    CodeDuplicateKey,
				Message: "target key already cached",
				Table:   m.table.Name(),
				Key:     newKey.String(),
			}
		}
	}

	if err := target.SetKeyValue(column, v); err != nil {
		return m.internalErr(err)
	}
	delete(m.index, oldFP)
	m.index[newFP] = target

	m.log.Info("row rekeyed", "from", oldKey.String(), "to", newKey.String())
	return nil
}

// All returns a lazy, restartable iteration over the cached rows in
// insertion order, yielding a clone of each. Every range over the
// returned sequence starts afresh and reflects the mirror's state at
// that moment; there is no snapshot isolation against mutation between
// iterations.
func (m *Mirror) All() iter.Seq[*row.Row] {
	return func(yield func(*row.Row) bool) {
		for _, r := range m.rows {
			if !yield(r.Clone()) {
				return
			}
		}
	}
}

// resolvePredicate queries the backing store with the predicate and
// resolves every matched row to its cached counterpart via the derived
// key. A matched row that is keyless or absent from the index makes the
// whole resolution fail with STALE_KEY: the mirror no longer projects
// what the store contains, and the caller must Load.
func (m *Mirror) resolvePredicate(ctx context.Context, predicate string) ([]*row.Row, error) {
	matched, err := m.backing.Select(ctx, m.table.Name(), predicate, m.table.Columns())
	if err != nil {
		return nil, m.backingErr("predicate scan failed", err)
	}

	targets := make([]*row.Row, 0, len(matched))
	for _, r := range matched {
		k, ok := r.Key()
		if !ok {
			return nil, &Error{
				Code:    CodeStaleKey,
				Message: "predicate matched a keyless row; cannot resolve it in the cache",
				Table:   m.table.Name(),
			}
		}
		target, ok := m.index[k.Fingerprint()]
		if !ok {
			return nil, &Error{
				Code:    CodeStaleKey,
				Message: "predicate matched a row that is not cached",
				Table:   m.table.Name(),
				Key:     k.String(),
			}
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// validateAssign checks an update row: every column must exist in the
// table with a matching kind, and none may be key-bearing (identity
// changes go through Rekey).
func (m *Mirror) validateAssign(assign *row.Row) error {
	if assign == nil || assign.Len() == 0 {
		return m.internalWrap("invalid assignment", fmt.Errorf("empty assignment row"))
	}
	for i := range assign.Len() {
		col, err := assign.ColumnAt(i)
		if err != nil {
			return m.internalErr(err)
		}
		declared, err := m.table.Column(col.Name())
		if err != nil {
			return &Error{
				Code:    CodeLookupMiss,
				Message: fmt.Sprintf("assignment column %q not in table", col.Name()),
				Table:   m.table.Name(),
			}
		}
		if declared.Kind() != col.Kind() {
			return m.internalWrap("invalid assignment",
				fmt.Errorf("column %q kind %s does not match declared %s", col.Name(), col.Kind(), declared.Kind()))
		}
		if declared.IsPrimaryKey() {
			return m.internalWrap("invalid assignment",
				fmt.Errorf("column %q: %w", col.Name(), row.ErrKeyColumnWrite))
		}
	}
	return nil
}

// applyAssign writes assign's cell values onto target by column name.
func applyAssign(target *row.Row, assign *row.Row) error {
	for i := range assign.Len() {
		col, err := assign.ColumnAt(i)
		if err != nil {
			return err
		}
		v, err := assign.ValueAt(i)
		if err != nil {
			return err
		}
		if err := target.SetValue(col.Name(), v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) requireLoaded() error {
	if m.loaded {
		return nil
	}
	return &Error{
		Code:    CodeNotLoaded,
		Message: "mirror not loaded; call Load first",
		Table:   m.table.Name(),
	}
}

func (m *Mirror) backingErr(msg string, err error) error {
	m.log.Error("backing store failure", "detail", msg, "err", err)
	return &Error{
		Code:    CodeBackingFailure,
		Message: msg,
		Table:   m.table.Name(),
		Err:     err,
	}
}

// internalErr wraps row-layer errors that indicate a mirror bug rather
// than caller misuse.
func (m *Mirror) internalErr(err error) error {
	return fmt.Errorf("mirror %s: %w", m.table.Name(), err)
}

func (m *Mirror) internalWrap(msg string, err error) error {
	return fmt.Errorf("mirror %s: %s: %w", m.table.Name(), msg, err)
}

func keyString(r *row.Row) string {
	if k, ok := r.Key(); ok {
		return k.String()
	}
	return "<none>"
}
