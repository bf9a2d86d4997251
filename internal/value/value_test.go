package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal_SameKind(t *testing.T) {
	assert.True(t, Int(42).Equal(Int(42)))
	assert.False(t, Int(42).Equal(Int(43)))
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Text("a").Equal(Text("b")))
	assert.True(t, Bool(true).Equal(Bool(true)))
	assert.True(t, Float(1.5).Equal(Float(1.5)))
}

func TestValue_Equal_KindMismatch(t *testing.T) {
	// No coercion: same-looking data under different tags is unequal.
	assert.False(t, Int(1).Equal(Float(1)))
	assert.False(t, Text("1").Equal(Int(1)))
	assert.False(t, Bool(true).Equal(Int(1)))
}

func TestValue_Text_NFCNormalized(t *testing.T) {
	// U+00E9 vs e + combining acute: canonically equal text.
	composed := Text("café")
	decomposed := Text("café")

	assert.True(t, composed.Equal(decomposed))
	assert.Equal(t,
		composed.AppendFingerprint(nil),
		decomposed.AppendFingerprint(nil))
}

func TestValue_Time_TruncatedUTC(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	a := Time(time.Date(2024, 3, 1, 12, 0, 0, 123456789, loc))
	b := Time(time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC))

	assert.True(t, a.Equal(b), "zone and sub-microsecond digits must not affect equality")
}

func TestValue_Fingerprint_DistinguishesKinds(t *testing.T) {
	// Int(1) and Bool(true) could collide without the kind tag byte.
	assert.NotEqual(t, Int(1).AppendFingerprint(nil), Bool(true).AppendFingerprint(nil))
	assert.NotEqual(t, Int(1).AppendFingerprint(nil), Float(1).AppendFingerprint(nil))
}

func TestParse_RoundTrip(t *testing.T) {
	cases := []struct {
		kind Kind
		in   string
		want Value
	}{
		{KindInt, "-7", Int(-7)},
		{KindFloat, "2.5", Float(2.5)},
		{KindText, "hello", Text("hello")},
		{KindBool, "true", Bool(true)},
	}
	for _, tc := range cases {
		got, err := Parse(tc.kind, tc.in)
		require.NoError(t, err, "parse %s %q", tc.kind, tc.in)
		assert.True(t, tc.want.Equal(got))
	}
}

func TestParse_BadInput(t *testing.T) {
	_, err := Parse(KindInt, "not-a-number")
	assert.Error(t, err)

	_, err = Parse(KindBool, "maybe")
	assert.Error(t, err)
}

func TestFromRaw_SQLiteWidenings(t *testing.T) {
	v, err := FromRaw(KindBool, int64(1))
	require.NoError(t, err)
	assert.True(t, v.Equal(Bool(true)))

	v, err = FromRaw(KindText, []byte("blob-backed"))
	require.NoError(t, err)
	assert.True(t, v.Equal(Text("blob-backed")))

	_, err = FromRaw(KindInt, "7")
	assert.Error(t, err, "strings do not widen to int")
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindInt, KindFloat, KindText, KindBool, KindTime} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("decimal")
	assert.Error(t, err)
}
