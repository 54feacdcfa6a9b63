package wire_test

import (
	"encoding/hex"
	"fmt"
	"math"
	"testing"

	"github.com/rdx-aegse/yamcs-link/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMode = wire.MustEnum("Mode", wire.KindU8,
	wire.EnumValue{Name: "SAFE", Value: 1},
	wire.EnumValue{Name: "NOMINAL", Value: 2},
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	signedEnum := wire.MustEnum("Trim", wire.KindI16,
		wire.EnumValue{Name: "DOWN", Value: -300},
		wire.EnumValue{Name: "LEVEL", Value: 0},
	)
	cases := []struct {
		t      wire.Type
		values []interface{}
	}{
		{wire.U8, []interface{}{uint8(0), uint8(42), uint8(math.MaxUint8)}},
		{wire.U16, []interface{}{uint16(0), uint16(0x1234), uint16(math.MaxUint16)}},
		{wire.U32, []interface{}{uint32(0), uint32(0xdeadbeef), uint32(math.MaxUint32)}},
		{wire.U64, []interface{}{uint64(0), uint64(1 << 40), uint64(math.MaxUint64)}},
		{wire.I8, []interface{}{int8(math.MinInt8), int8(-1), int8(0), int8(math.MaxInt8)}},
		{wire.I16, []interface{}{int16(math.MinInt16), int16(-2), int16(math.MaxInt16)}},
		{wire.I32, []interface{}{int32(math.MinInt32), int32(7), int32(math.MaxInt32)}},
		{wire.I64, []interface{}{int64(math.MinInt64), int64(-7), int64(math.MaxInt64)}},
		{wire.F32, []interface{}{float32(0), float32(-1.5), float32(3.14), float32(math.MaxFloat32), float32(math.SmallestNonzeroFloat32)}},
		{wire.F64, []interface{}{float64(0), float64(-1e300), float64(math.Pi)}},
		{testMode.Type(), []interface{}{testMode.Members[0], testMode.Members[1]}},
		{signedEnum.Type(), []interface{}{signedEnum.Members[0], signedEnum.Members[1]}},
	}
	for _, c := range cases {
		c := c
		for _, v := range c.values {
			v := v
			t.Run(fmt.Sprintf("%s/%v", c.t, v), func(t *testing.T) {
				b, err := wire.Encode(c.t, v)
				require.NoError(t, err)
				require.Equal(t, c.t.Size(), len(b))
				decoded, n, err := wire.Decode(c.t, b)
				require.NoError(t, err)
				assert.Equal(t, c.t.Size(), n)
				assert.Equal(t, v, decoded)
			})
		}
	}
}

func TestEncodeBigEndian(t *testing.T) {
	t.Parallel()

	cases := []struct {
		t      wire.Type
		v      interface{}
		expect string
	}{
		{wire.U8, 42, "2a"},
		{wire.U16, 5, "0005"},
		{wire.U32, 0xfeedcafe, "feedcafe"},
		{wire.I16, -2, "fffe"},
		{wire.I32, int64(-1), "ffffffff"},
		{wire.F32, 1.0, "3f800000"},
		{wire.F64, float32(-2), "c000000000000000"},
		{wire.U16, float64(300), "012c"},
		{wire.U8, true, "01"},
		{testMode.Type(), "NOMINAL", "02"},
		{testMode.Type(), 1, "01"},
		{wire.Void, nil, ""},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%s/%v", c.t, c.v), func(t *testing.T) {
			b, err := wire.Encode(c.t, c.v)
			require.NoError(t, err)
			assert.Equal(t, c.expect, hex.EncodeToString(b))
		})
	}
}

func TestEncodeRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		t wire.Type
		v interface{}
	}{
		{wire.U8, 256},
		{wire.U8, -1},
		{wire.U16, uint32(math.MaxUint16 + 1)},
		{wire.U64, -1},
		{wire.I8, 128},
		{wire.I8, -129},
		{wire.I64, uint64(math.MaxInt64) + 1},
		{wire.U32, 1.5},
		{wire.U64, math.Inf(1)},
		{wire.F32, math.MaxFloat64},
		{wire.U16, "five"},
		{wire.F64, nil},
		{testMode.Type(), 3},
		{testMode.Type(), "UNKNOWN"},
		{testMode.Type(), 1.0},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%s/%v", c.t, c.v), func(t *testing.T) {
			dst := []byte{0xaa}
			out, err := wire.Append(dst, c.t, c.v)
			require.Error(t, err)
			assert.True(t, wire.IsEncodingRange(err), "err=%v", err)
			assert.Equal(t, dst, out)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	for _, typ := range wire.Basic {
		b := make([]byte, typ.Size()-1)
		_, _, err := wire.Decode(typ, b)
		require.Error(t, err, typ.String())
		assert.True(t, wire.IsShortBuffer(err))
		assert.Contains(t, err.Error(), fmt.Sprintf("need=%d have=%d", typ.Size(), typ.Size()-1))
	}

	_, n, err := wire.Decode(testMode.Type(), []byte{9})
	require.Error(t, err)
	assert.True(t, wire.IsUnknownEnumValue(err))
	assert.Equal(t, 1, n)
	uerr, ok := err.(*wire.UnknownEnumValueError)
	require.True(t, ok)
	assert.Equal(t, int64(9), uerr.Raw)
}

func TestNewEnumValidation(t *testing.T) {
	t.Parallel()

	_, err := wire.NewEnum("E", wire.KindF32, wire.EnumValue{Name: "A", Value: 1})
	assert.Error(t, err)
	_, err = wire.NewEnum("E", wire.KindU8)
	assert.Error(t, err)
	_, err = wire.NewEnum("E", wire.KindU8, wire.EnumValue{Name: "A", Value: 1}, wire.EnumValue{Name: "A", Value: 2})
	assert.Error(t, err)
	_, err = wire.NewEnum("E", wire.KindU8, wire.EnumValue{Name: "A", Value: 1}, wire.EnumValue{Name: "B", Value: 1})
	assert.Error(t, err)
	_, err = wire.NewEnum("E", wire.KindU8, wire.EnumValue{Name: "A", Value: 300})
	assert.True(t, wire.IsEncodingRange(err))
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, typ := range wire.Basic {
		parsed, err := wire.ParseType(typ.String())
		require.NoError(t, err)
		assert.True(t, typ.Equal(parsed))
	}
	parsed, err := wire.ParseType("f32")
	require.NoError(t, err)
	assert.Equal(t, wire.F32, parsed)
	parsed, err = wire.ParseType("Mode", testMode)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(testMode.Type()))
	assert.Equal(t, wire.KindU8, parsed.Backing())
	parsed, err = wire.ParseType("")
	require.NoError(t, err)
	assert.True(t, parsed.IsVoid())
	_, err = wire.ParseType("string16")
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	t.Parallel()

	args := wire.Args{uint16(2), int8(-3), float32(0.5), testMode.Members[1], uint8(1)}
	assert.Equal(t, 5, args.Len())
	assert.Equal(t, uint64(2), args.Uint(0))
	assert.Equal(t, int64(-3), args.Int(1))
	assert.Equal(t, 0.5, args.Float(2))
	assert.Equal(t, "NOMINAL", args.Enum(3).Name)
	assert.True(t, args.Bool(4))
	assert.Panics(t, func() { wire.Args{"x"}.Uint(0) })
}

func TestZero(t *testing.T) {
	t.Parallel()

	for _, typ := range append(wire.Basic, testMode.Type()) {
		b, err := wire.Encode(typ, wire.Zero(typ))
		require.NoError(t, err, typ.String())
		assert.Equal(t, typ.Size(), len(b))
	}
	assert.Nil(t, wire.Zero(wire.Void))
}
