package wire

import "math"

type numClass uint8

const (
	numInvalid numClass = iota
	numInt
	numUint
	numFloat
)

// number holds any Go numeric value in a form that can be range checked
// without overflow.
type number struct {
	class numClass
	i     int64
	u     uint64
	f     float64
}

func numberInt(i int64) number     { return number{class: numInt, i: i} }
func numberUint(u uint64) number   { return number{class: numUint, u: u} }
func numberFloat(f float64) number { return number{class: numFloat, f: f} }

func toNumber(v interface{}) number {
	switch x := v.(type) {
	case int:
		return numberInt(int64(x))
	case int8:
		return numberInt(int64(x))
	case int16:
		return numberInt(int64(x))
	case int32:
		return numberInt(int64(x))
	case int64:
		return numberInt(x)
	case uint:
		return numberUint(uint64(x))
	case uint8:
		return numberUint(uint64(x))
	case uint16:
		return numberUint(uint64(x))
	case uint32:
		return numberUint(uint64(x))
	case uint64:
		return numberUint(x)
	case float32:
		return numberFloat(float64(x))
	case float64:
		return numberFloat(x)
	case bool:
		if x {
			return numberUint(1)
		}
		return numberUint(0)
	case EnumValue:
		return numberInt(x.Value)
	}
	return number{}
}

func (n number) int64() int64 {
	switch n.class {
	case numInt:
		return n.i
	case numUint:
		return int64(n.u)
	case numFloat:
		return int64(n.f)
	}
	return 0
}

func (n number) uint64() uint64 {
	switch n.class {
	case numInt:
		return uint64(n.i)
	case numUint:
		return n.u
	case numFloat:
		return uint64(n.f)
	}
	return 0
}

func (n number) float64() float64 {
	switch n.class {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	case numFloat:
		return n.f
	}
	return 0
}

// inRange reports whether n fits the backing kind of t.
func inRange(t Type, n number) bool {
	k := t.Backing()
	switch {
	case k == KindF32:
		if n.class == numFloat && (math.IsNaN(n.f) || math.IsInf(n.f, 0)) {
			return true
		}
		f := n.float64()
		return n.class != numInvalid && f >= -math.MaxFloat32 && f <= math.MaxFloat32
	case k == KindF64:
		return n.class != numInvalid
	case !k.IsInteger():
		return false
	}

	min, maxU := IntRange(k)
	switch n.class {
	case numInt:
		if n.i < min {
			return false
		}
		return n.i < 0 || uint64(n.i) <= maxU
	case numUint:
		return n.u <= maxU
	case numFloat:
		if n.f != math.Trunc(n.f) || math.IsInf(n.f, 0) {
			return false
		}
		// float64(maxU)+1 is exact for every width: 2^8 .. 2^64
		return n.f >= float64(min) && n.f < float64(maxU)+1
	}
	return false
}
