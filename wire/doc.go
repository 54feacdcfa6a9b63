// Package wire is the catalogue of primitive types exchanged with the ground
// control system: fixed width integers, IEEE floats and integer backed
// enumerations. All multi-byte values are big-endian.
//
// Decode returns canonical Go types so that Decode(Encode(v)) == v holds for
// every value in range:
//
//	U8 uint8    U16 uint16  U32 uint32  U64 uint64
//	I8 int8     I16 int16   I32 int32   I64 int64
//	F32 float32 F64 float64 Enum EnumValue Void nil
package wire
