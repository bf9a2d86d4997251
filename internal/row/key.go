// Package row defines the record type the mirror caches and the key
// identity derived from a record's primary-key columns.
package row

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// keyDomain separates key fingerprints from any other sha256 use.
const keyDomain = "rowmirror/key/v1"

// Key is the lookup identity of a row: the ordered values of its
// primary-key columns. Two shapes exist, Single (arity 1, the common
// case) and Composite (arity >= 2), but both normalize to the same
// ordered value sequence for equality and fingerprinting, so a Single
// key and a 1-arity Composite key over the same value are
// interchangeable as index keys.
//
// Equality is positional over values only. The column descriptors are
// carried for diagnostics and name lookup; they do not participate in
// equality or fingerprinting.
type Key struct {
	cols []*schema.Column
	vals []value.Value
}

// Single constructs the 1-arity key shape directly, skipping the
// composite assembly path.
func Single(col *schema.Column, val value.Value) Key {
	return Key{cols: []*schema.Column{col}, vals: []value.Value{val.Clone()}}
}

// SingleValue constructs a 1-arity key without a column descriptor.
// Used by callers that look up by bare value (the CLI, tests); it
// compares equal to any derived key carrying the same single value.
func SingleValue(val value.Value) Key {
	return Key{cols: []*schema.Column{nil}, vals: []value.Value{val.Clone()}}
}

// Composite constructs a key from (column, value) pairs in order.
func Composite(cols []*schema.Column, vals []value.Value) (Key, error) {
	if len(cols) != len(vals) {
		return Key{}, fmt.Errorf("composite key: %d columns, %d values", len(cols), len(vals))
	}
	if len(cols) == 0 {
		return Key{}, fmt.Errorf("composite key: at least one element required")
	}
	k := Key{
		cols: make([]*schema.Column, len(cols)),
		vals: make([]value.Value, len(vals)),
	}
	copy(k.cols, cols)
	for i, v := range vals {
		k.vals[i] = v.Clone()
	}
	return k, nil
}

// Arity returns the number of key elements.
func (k Key) Arity() int { return len(k.vals) }

// IsSingle reports whether the key has exactly one element.
func (k Key) IsSingle() bool { return len(k.vals) == 1 }

// ValueAt returns the key value at position i.
func (k Key) ValueAt(i int) (value.Value, error) {
	if i < 0 || i >= len(k.vals) {
		return value.Value{}, fmt.Errorf("key index %d out of bounds [0, %d)", i, len(k.vals))
	}
	return k.vals[i].Clone(), nil
}

// ColumnAt returns the column descriptor at position i. May be nil for
// keys built from bare values.
func (k Key) ColumnAt(i int) (*schema.Column, error) {
	if i < 0 || i >= len(k.cols) {
		return nil, fmt.Errorf("key index %d out of bounds [0, %d)", i, len(k.cols))
	}
	return k.cols[i], nil
}

// Lookup returns the key value whose column has the given name.
func (k Key) Lookup(name string) (value.Value, error) {
	for i, col := range k.cols {
		if col != nil && col.Name() == name {
			return k.vals[i].Clone(), nil
		}
	}
	return value.Value{}, fmt.Errorf("key has no column %q", name)
}

// Equal reports positional value equality. Keys of different arity are
// unequal; column identity is ignored, so Single(v) equals a 1-arity
// Composite carrying an equal value.
func (k Key) Equal(o Key) bool {
	if len(k.vals) != len(o.vals) {
		return false
	}
	for i, v := range k.vals {
		if !v.Equal(o.vals[i]) {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable hex digest of the ordered value
// sequence: SHA256(domain + 0x00 + value encodings). The encoding is
// order-sensitive by concatenation and each value is kind-tagged and
// length-prefixed, so permuted composites and cross-kind collisions
// produce distinct digests. Keys that Equal each other fingerprint
// identically regardless of shape.
func (k Key) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(keyDomain))
	h.Write([]byte{0x00})
	var buf []byte
	for _, v := range k.vals {
		buf = v.AppendFingerprint(buf[:0])
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns an independent key.
func (k Key) Clone() Key {
	out := Key{
		cols: make([]*schema.Column, len(k.cols)),
		vals: make([]value.Value, len(k.vals)),
	}
	copy(out.cols, k.cols)
	for i, v := range k.vals {
		out.vals[i] = v.Clone()
	}
	return out
}

func (k Key) String() string {
	parts := make([]string, len(k.vals))
	for i, v := range k.vals {
		if k.cols[i] != nil {
			parts[i] = fmt.Sprintf("%s=%s", k.cols[i].Name(), v)
		} else {
			parts[i] = v.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
