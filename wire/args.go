package wire

import "fmt"

// Args are decoded command arguments in declaration order.
// Accessors convert between numeric Go types and panic on index or type mismatch,
// which the dispatcher reports as handler failure.
type Args []interface{}

func (a Args) Len() int { return len(a) }

func (a Args) number(i int) number {
	n := toNumber(a[i])
	if n.class == numInvalid {
		panic(fmt.Sprintf("wire: arg[%d]=%v (%T) is not numeric", i, a[i], a[i]))
	}
	return n
}

func (a Args) Uint(i int) uint64    { return a.number(i).uint64() }
func (a Args) Int(i int) int64      { return a.number(i).int64() }
func (a Args) Float(i int) float64  { return a.number(i).float64() }
func (a Args) Bool(i int) bool      { return a.number(i).uint64() != 0 }
func (a Args) Enum(i int) EnumValue { return a[i].(EnumValue) }
