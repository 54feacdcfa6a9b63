package wire

import (
	"fmt"

	"github.com/juju/errors"
)

type EncodingRangeError struct {
	Type  Type
	Value interface{}
}

func (e *EncodingRangeError) Error() string {
	return fmt.Sprintf("wire: value=%v (%T) out of range for type=%s", e.Value, e.Value, e.Type)
}

type ShortBufferError struct {
	Type Type
	Need int
	Have int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("wire: short buffer type=%s need=%d have=%d", e.Type, e.Need, e.Have)
}

// UnknownEnumValueError is recoverable: Raw carries the value read from the wire.
type UnknownEnumValueError struct {
	Enum *Enum
	Raw  int64
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("wire: enum=%s unknown value=%d", e.Enum, e.Raw)
}

func IsEncodingRange(err error) bool {
	_, ok := errors.Cause(err).(*EncodingRangeError)
	return ok
}

func IsShortBuffer(err error) bool {
	_, ok := errors.Cause(err).(*ShortBufferError)
	return ok
}

func IsUnknownEnumValue(err error) bool {
	_, ok := errors.Cause(err).(*UnknownEnumValueError)
	return ok
}
