package tree

import (
	"context"
	"time"

	"github.com/rdx-aegse/yamcs-link/wire"
)

// AutoID asks the tree to assign the next free id of the descriptor kind.
const AutoID = -1

type GetFunc func() (interface{}, error)

type HandlerFunc func(ctx context.Context, args wire.Args) (interface{}, error)

// Telemetry is a periodically sampled typed value.
// Immutable after registration.
type Telemetry struct {
	ID   int
	Name string
	Type wire.Type
	// Period 0 means sampled every service tick.
	Period      time.Duration
	Get         GetFunc
	Description string

	qualified string
}

func (self *Telemetry) QualifiedName() string { return self.qualified }
func (self *Telemetry) String() string        { return self.qualified }

type Arg struct {
	Name string
	Type wire.Type
	// Optional inclusive bounds, exported to the database and enforced on dispatch.
	Min *float64
	Max *float64
}

func Bound(f float64) *float64 { return &f }

type Command struct {
	ID          int
	Name        string
	Args        []Arg
	Return      wire.Type
	Handler     HandlerFunc
	Description string

	qualified string
	argSize   int
}

func (self *Command) QualifiedName() string { return self.qualified }
func (self *Command) String() string        { return self.qualified }

// ArgSize is the encoded length of all arguments.
func (self *Command) ArgSize() int { return self.argSize }

// Telemetry0 is shorthand for a telemetry point whose accessor cannot fail.
func Telemetry0(id int, name string, typ wire.Type, get func() interface{}) *Telemetry {
	return &Telemetry{
		ID:   id,
		Name: name,
		Type: typ,
		Get:  func() (interface{}, error) { return get(), nil },
	}
}
