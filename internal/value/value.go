// Package value defines the typed scalar that rows, cells, and keys are
// built from. A Value pairs a raw datum with a Kind tag; two Values are
// equal only when both the tag and the datum match. There is no implicit
// coercion between kinds.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies the declared type of a Value. The set is closed: there
// is no registration mechanism, and unknown kinds are a construction-time
// error.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
	KindBool
	KindTime
)

// String returns the schema-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a schema-file spelling back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "text":
		return KindText, nil
	case "bool":
		return KindBool, nil
	case "time":
		return KindTime, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q", s)
	}
}

// Value is one scalar datum with its kind tag. The zero Value is a valid
// KindInt zero. Values are plain structs with no interior pointers, so an
// assignment is already an independent copy; Clone exists to make the
// ownership hand-off explicit at boundaries that require it.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
}

// Int constructs an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float constructs a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text constructs a text Value. The string is NFC-normalized on
// construction so that canonically equal text compares and fingerprints
// identically regardless of the encoder that produced it.
func Text(v string) Value { return Value{kind: KindText, s: norm.NFC.String(v)} }

// Bool constructs a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Time constructs a time Value, truncated to UTC microseconds so that a
// round trip through a backing store cannot change equality.
func Time(v time.Time) Value {
	return Value{kind: KindTime, t: v.UTC().Truncate(time.Microsecond)}
}

// Kind returns the value's type tag. The tag is fixed at construction.
func (v Value) Kind() Kind { return v.kind }

// IntVal returns the integer datum. The bool reports whether the kind is
// KindInt; the datum is meaningless otherwise.
func (v Value) IntVal() (int64, bool) { return v.i, v.kind == KindInt }

// FloatVal returns the float datum if the kind is KindFloat.
func (v Value) FloatVal() (float64, bool) { return v.f, v.kind == KindFloat }

// TextVal returns the text datum if the kind is KindText.
func (v Value) TextVal() (string, bool) { return v.s, v.kind == KindText }

// BoolVal returns the boolean datum if the kind is KindBool.
func (v Value) BoolVal() (bool, bool) { return v.b, v.kind == KindBool }

// TimeVal returns the time datum if the kind is KindTime.
func (v Value) TimeVal() (time.Time, bool) { return v.t, v.kind == KindTime }

// Raw returns the datum as an untyped scalar suitable for driver
// parameter binding (int64, float64, string, bool, or time.Time).
func (v Value) Raw() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Clone returns an independent copy. Values carry no interior pointers,
// so this is a plain copy; it exists so boundary crossings read as an
// explicit ownership transfer.
func (v Value) Clone() Value { return v }

// Equal reports kind-and-datum equality. Different kinds are never equal,
// even when the raw data would compare (Int(1) != Float(1)).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return false
	}
}

// AppendFingerprint appends an unambiguous byte encoding of the value:
// one kind tag byte, then a fixed-width or length-prefixed datum. Equal
// values produce identical bytes; values that differ in kind or datum
// produce different bytes. Used by key fingerprinting, which requires the
// encoding to be order-sensitive when concatenated.
func (v Value) AppendFingerprint(b []byte) []byte {
	b = append(b, byte(v.kind))
	switch v.kind {
	case KindInt:
		b = binary.BigEndian.AppendUint64(b, uint64(v.i))
	case KindFloat:
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(v.f))
	case KindText:
		b = binary.BigEndian.AppendUint64(b, uint64(len(v.s)))
		b = append(b, v.s...)
	case KindBool:
		if v.b {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	case KindTime:
		b = binary.BigEndian.AppendUint64(b, uint64(v.t.UnixMicro()))
	}
	return b
}

// String renders the datum for logs and the text dump format.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "<invalid>"
	}
}

// Parse builds a Value of the given kind from its textual form. Used by
// the CLI, which receives cell values as command-line arguments.
func Parse(k Kind, s string) (Value, error) {
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse int %q: %w", s, err)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return Float(f), nil
	case KindText:
		return Text(s), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool %q: %w", s, err)
		}
		return Bool(b), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, fmt.Errorf("parse time %q: %w", s, err)
		}
		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", k)
	}
}

// FromRaw converts a driver-produced scalar into a Value of the declared
// kind. SQLite in particular widens types on the wire, so the conversion
// accepts the common widenings ([]byte for text, int64 for bool).
func FromRaw(k Kind, raw any) (Value, error) {
	switch k {
	case KindInt:
		switch n := raw.(type) {
		case int64:
			return Int(n), nil
		case int:
			return Int(int64(n)), nil
		}
	case KindFloat:
		switch f := raw.(type) {
		case float64:
			return Float(f), nil
		case int64:
			return Float(float64(f)), nil
		}
	case KindText:
		switch s := raw.(type) {
		case string:
			return Text(s), nil
		case []byte:
			return Text(string(s)), nil
		}
	case KindBool:
		switch b := raw.(type) {
		case bool:
			return Bool(b), nil
		case int64:
			return Bool(b != 0), nil
		}
	case KindTime:
		switch t := raw.(type) {
		case time.Time:
			return Time(t), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return Value{}, fmt.Errorf("scan time %q: %w", t, err)
			}
			return Time(parsed), nil
		}
	}
	return Value{}, fmt.Errorf("cannot scan %T as %s", raw, k)
}
