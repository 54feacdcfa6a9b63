package wire

import (
	"fmt"

	"github.com/juju/errors"
)

// EnumValue is both an enumeration member declaration and a decoded enum value.
type EnumValue struct {
	Name  string
	Value int64
}

func (v EnumValue) String() string { return fmt.Sprintf("%s(%d)", v.Name, v.Value) }

type Enum struct {
	Name    string
	Width   Kind
	Members []EnumValue
}

// NewEnum validates member names and values are unique and fit Width.
func NewEnum(name string, width Kind, members ...EnumValue) (*Enum, error) {
	if name == "" {
		return nil, errors.Errorf("wire: enum name is empty")
	}
	if !width.IsInteger() {
		return nil, errors.Errorf("wire: enum=%s width=%s must be integer", name, width)
	}
	if len(members) == 0 {
		return nil, errors.Errorf("wire: enum=%s has no members", name)
	}
	e := &Enum{Name: name, Width: width, Members: make([]EnumValue, 0, len(members))}
	t := Type{kind: width}
	seenName := make(map[string]struct{}, len(members))
	seenValue := make(map[int64]struct{}, len(members))
	for _, m := range members {
		if _, ok := seenName[m.Name]; ok || m.Name == "" {
			return nil, errors.Errorf("wire: enum=%s invalid or duplicate member name=%q", name, m.Name)
		}
		if _, ok := seenValue[m.Value]; ok {
			return nil, errors.Errorf("wire: enum=%s duplicate member value=%d", name, m.Value)
		}
		if !inRange(t, numberInt(m.Value)) {
			return nil, errors.Annotatef(&EncodingRangeError{Type: t, Value: m.Value}, "enum=%s member=%s", name, m.Name)
		}
		seenName[m.Name] = struct{}{}
		seenValue[m.Value] = struct{}{}
		e.Members = append(e.Members, m)
	}
	return e, nil
}

func MustEnum(name string, width Kind, members ...EnumValue) *Enum {
	e, err := NewEnum(name, width, members...)
	if err != nil {
		panic(errors.ErrorStack(err))
	}
	return e
}

func (e *Enum) Type() Type { return Type{kind: KindEnum, enum: e} }

func (e *Enum) Lookup(value int64) (EnumValue, bool) {
	for _, m := range e.Members {
		if m.Value == value {
			return m, true
		}
	}
	return EnumValue{}, false
}

func (e *Enum) ByName(name string) (EnumValue, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumValue{}, false
}

func (e *Enum) String() string { return e.Name }
