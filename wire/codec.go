package wire

import (
	"encoding/binary"
	"math"
)

func Encode(t Type, v interface{}) ([]byte, error) {
	return Append(make([]byte, 0, t.Size()), t, v)
}

// Append encodes v as t at the end of dst. On error dst is returned unchanged.
func Append(dst []byte, t Type, v interface{}) ([]byte, error) {
	switch t.kind {
	case KindVoid:
		return dst, nil

	case KindEnum:
		n, err := enumNumber(t, v)
		if err != nil {
			return dst, err
		}
		return appendInt(dst, t.enum.Width, n), nil

	case KindF32:
		n := toNumber(v)
		if !inRange(t, n) {
			return dst, &EncodingRangeError{Type: t, Value: v}
		}
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(n.float64()))), nil

	case KindF64:
		n := toNumber(v)
		if !inRange(t, n) {
			return dst, &EncodingRangeError{Type: t, Value: v}
		}
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(n.float64())), nil
	}

	if !t.kind.IsInteger() {
		return dst, &EncodingRangeError{Type: t, Value: v}
	}
	n := toNumber(v)
	if !inRange(t, n) {
		return dst, &EncodingRangeError{Type: t, Value: v}
	}
	return appendInt(dst, t.kind, n), nil
}

func enumNumber(t Type, v interface{}) (number, error) {
	var member EnumValue
	var ok bool
	switch x := v.(type) {
	case string:
		member, ok = t.enum.ByName(x)
	case EnumValue:
		member, ok = t.enum.Lookup(x.Value)
	default:
		n := toNumber(v)
		if n.class != numInvalid && n.class != numFloat {
			member, ok = t.enum.Lookup(n.int64())
			if n.class == numUint && n.u > math.MaxInt64 {
				ok = false
			}
		}
	}
	if !ok {
		return number{}, &EncodingRangeError{Type: t, Value: v}
	}
	return numberInt(member.Value), nil
}

func appendInt(dst []byte, k Kind, n number) []byte {
	var u uint64
	if k.IsSigned() {
		u = uint64(n.int64())
	} else {
		u = n.uint64()
	}
	switch k {
	case KindU8, KindI8:
		return append(dst, byte(u))
	case KindU16, KindI16:
		return binary.BigEndian.AppendUint16(dst, uint16(u))
	case KindU32, KindI32:
		return binary.BigEndian.AppendUint32(dst, uint32(u))
	default:
		return binary.BigEndian.AppendUint64(dst, u)
	}
}

// Decode reads one value of type t from the start of b.
// Returns the canonical Go value and number of bytes consumed.
func Decode(t Type, b []byte) (interface{}, int, error) {
	size := t.Size()
	if len(b) < size {
		return nil, 0, &ShortBufferError{Type: t, Need: size, Have: len(b)}
	}
	switch t.kind {
	case KindVoid:
		return nil, 0, nil
	case KindU8:
		return b[0], 1, nil
	case KindU16:
		return binary.BigEndian.Uint16(b), 2, nil
	case KindU32:
		return binary.BigEndian.Uint32(b), 4, nil
	case KindU64:
		return binary.BigEndian.Uint64(b), 8, nil
	case KindI8:
		return int8(b[0]), 1, nil
	case KindI16:
		return int16(binary.BigEndian.Uint16(b)), 2, nil
	case KindI32:
		return int32(binary.BigEndian.Uint32(b)), 4, nil
	case KindI64:
		return int64(binary.BigEndian.Uint64(b)), 8, nil
	case KindF32:
		return math.Float32frombits(binary.BigEndian.Uint32(b)), 4, nil
	case KindF64:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), 8, nil
	case KindEnum:
		raw := readInt(t.enum.Width, b)
		member, ok := t.enum.Lookup(raw)
		if !ok {
			return nil, size, &UnknownEnumValueError{Enum: t.enum, Raw: raw}
		}
		return member, size, nil
	}
	return nil, 0, &ShortBufferError{Type: t, Need: size, Have: len(b)}
}

func readInt(k Kind, b []byte) int64 {
	switch k {
	case KindU8:
		return int64(b[0])
	case KindU16:
		return int64(binary.BigEndian.Uint16(b))
	case KindU32:
		return int64(binary.BigEndian.Uint32(b))
	case KindU64:
		return int64(binary.BigEndian.Uint64(b))
	case KindI8:
		return int64(int8(b[0]))
	case KindI16:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case KindI32:
		return int64(int32(binary.BigEndian.Uint32(b)))
	}
	return int64(binary.BigEndian.Uint64(b))
}

// Zero is the sentinel value of t: numeric zero, first enum member, nil for Void.
func Zero(t Type) interface{} {
	switch t.kind {
	case KindVoid:
		return nil
	case KindU8:
		return uint8(0)
	case KindU16:
		return uint16(0)
	case KindU32:
		return uint32(0)
	case KindU64:
		return uint64(0)
	case KindI8:
		return int8(0)
	case KindI16:
		return int16(0)
	case KindI32:
		return int32(0)
	case KindI64:
		return int64(0)
	case KindF32:
		return float32(0)
	case KindF64:
		return float64(0)
	case KindEnum:
		return t.enum.Members[0]
	}
	return nil
}
