package tree

import (
	"fmt"

	"github.com/juju/errors"
)

var (
	ErrFrozen   = fmt.Errorf("tree is frozen")
	ErrDetached = fmt.Errorf("node is not attached to tree")
)

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate name=%s", e.Name)
}

type DuplicateIdError struct {
	Kind     string // telemetry|command
	ID       int
	Existing string
	New      string
}

func (e *DuplicateIdError) Error() string {
	return fmt.Sprintf("duplicate %s id=%d new=%s existing=%s", e.Kind, e.ID, e.New, e.Existing)
}

type InvalidError struct {
	Name   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid descriptor name=%s: %s", e.Name, e.Reason)
}

func IsDuplicateName(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateNameError)
	return ok
}

func IsDuplicateID(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateIdError)
	return ok
}
