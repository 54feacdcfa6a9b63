package link

import (
	"fmt"

	"github.com/juju/errors"
)

type UnknownCommandError struct {
	ID int
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command id=%d", e.ID)
}

// ArgumentDecodeError means arguments did not match the command signature.
// Handler is never invoked.
type ArgumentDecodeError struct {
	Command string
	Arg     string
	Reason  string
}

func (e *ArgumentDecodeError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("command=%s arguments %s", e.Command, e.Reason)
	}
	return fmt.Sprintf("command=%s argument=%s %s", e.Command, e.Arg, e.Reason)
}

// HandlerError is a failure reported by, or a panic in, a command handler.
type HandlerError struct {
	Command string
	Err     error
	Panic   bool
}

func (e *HandlerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("command=%s handler panic: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command=%s handler: %v", e.Command, e.Err)
}

func IsUnknownCommand(err error) bool {
	_, ok := errors.Cause(err).(*UnknownCommandError)
	return ok
}

func IsHandler(err error) bool {
	_, ok := errors.Cause(err).(*HandlerError)
	return ok
}

func IsArgumentDecode(err error) bool {
	_, ok := errors.Cause(err).(*ArgumentDecodeError)
	return ok
}
