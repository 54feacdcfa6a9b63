package wire

import (
	"fmt"
	"math"
	"strings"
)

type Kind uint8

const (
	KindVoid Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindEnum
	kindCount
)

var kindNames = [kindCount]string{
	KindVoid: "void",
	KindU8:   "U8",
	KindU16:  "U16",
	KindU32:  "U32",
	KindU64:  "U64",
	KindI8:   "I8",
	KindI16:  "I16",
	KindI32:  "I32",
	KindI64:  "I64",
	KindF32:  "F32",
	KindF64:  "F64",
	KindEnum: "enum",
}

var kindSizes = [kindCount]int{
	KindU8: 1, KindU16: 2, KindU32: 4, KindU64: 8,
	KindI8: 1, KindI16: 2, KindI32: 4, KindI64: 8,
	KindF32: 4, KindF64: 8,
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) IsInteger() bool { return k >= KindU8 && k <= KindI64 }
func (k Kind) IsSigned() bool  { return k >= KindI8 && k <= KindF64 }
func (k Kind) IsFloat() bool   { return k == KindF32 || k == KindF64 }

// Type is a value type; the zero Type is Void.
type Type struct {
	kind Kind
	enum *Enum
}

var (
	Void = Type{kind: KindVoid}
	U8   = Type{kind: KindU8}
	U16  = Type{kind: KindU16}
	U32  = Type{kind: KindU32}
	U64  = Type{kind: KindU64}
	I8   = Type{kind: KindI8}
	I16  = Type{kind: KindI16}
	I32  = Type{kind: KindI32}
	I64  = Type{kind: KindI64}
	F32  = Type{kind: KindF32}
	F64  = Type{kind: KindF64}
)

// Basic lists all non-enum value types in catalogue order.
var Basic = []Type{U8, U16, U32, U64, I8, I16, I32, I64, F32, F64}

func (t Type) Kind() Kind  { return t.kind }
func (t Type) Enum() *Enum { return t.enum }
func (t Type) IsVoid() bool {
	return t.kind == KindVoid
}

// Backing is the kind actually written on the wire.
func (t Type) Backing() Kind {
	if t.kind == KindEnum {
		return t.enum.Width
	}
	return t.kind
}

func (t Type) Size() int {
	k := t.Backing()
	if k < kindCount {
		return kindSizes[k]
	}
	return 0
}

func (t Type) Signed() bool { return t.Backing().IsSigned() }

func (t Type) Valid() bool {
	switch {
	case t.kind == KindEnum:
		return t.enum != nil && t.enum.Width.IsInteger()
	case t.kind < KindEnum:
		return t.enum == nil
	}
	return false
}

func (t Type) Equal(other Type) bool {
	return t.kind == other.kind && t.enum == other.enum
}

// String is the name used in the mission database.
func (t Type) String() string {
	if t.kind == KindEnum && t.enum != nil {
		return t.enum.Name
	}
	return t.kind.String()
}

// IntRange returns declared bounds of integer kinds.
// For unsigned kinds min=0, for signed kinds maxU=uint64(max).
func IntRange(k Kind) (min int64, maxU uint64) {
	switch k {
	case KindU8:
		return 0, math.MaxUint8
	case KindU16:
		return 0, math.MaxUint16
	case KindU32:
		return 0, math.MaxUint32
	case KindU64:
		return 0, math.MaxUint64
	case KindI8:
		return math.MinInt8, math.MaxInt8
	case KindI16:
		return math.MinInt16, math.MaxInt16
	case KindI32:
		return math.MinInt32, math.MaxInt32
	case KindI64:
		return math.MinInt64, math.MaxInt64
	}
	return 0, 0
}

// ParseType resolves a database type name, case insensitive for basic types.
// Names not in the basic catalogue are looked up in enums.
func ParseType(name string, enums ...*Enum) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" || upper == "VOID" || upper == "NONE" {
		return Void, nil
	}
	for _, t := range Basic {
		if t.kind.String() == upper {
			return t, nil
		}
	}
	for _, e := range enums {
		if e != nil && e.Name == name {
			return e.Type(), nil
		}
	}
	return Void, fmt.Errorf("wire: unknown type=%s", name)
}
