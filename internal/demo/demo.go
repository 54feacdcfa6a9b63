// Package demo is a sample component showing how an application registers with the link.
package demo

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/link"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
)

var Mode = wire.MustEnum("MyEnum", wire.KindU8,
	wire.EnumValue{Name: "VALUE1", Value: 1},
	wire.EnumValue{Name: "VALUE2", Value: 2})

type Component struct {
	Node *tree.Node

	log     *log2.Log
	mode    wire.EnumValue
	counter uint8
	safe    bool
	calls   int
}

func New(name string, log *log2.Log) *Component {
	self := &Component{
		Node:    tree.NewNode(name),
		log:     log,
		mode:    Mode.Members[0],
		counter: 42,
	}
	self.Node.OnDisconnect = self.onDisconnect
	return self
}

func (self *Component) Mode() wire.EnumValue { return self.mode }
func (self *Component) Safe() bool           { return self.safe }
func (self *Component) Calls() int           { return self.calls }

// Register declares telemetry and commands of the component under parent (root if nil).
func (self *Component) Register(s *link.Service, parent *tree.Node) error {
	tms := []*tree.Telemetry{
		{ID: tree.AutoID, Name: "mode", Type: Mode.Type(), Period: time.Second,
			Get: func() (interface{}, error) { return self.mode, nil }},
		{ID: tree.AutoID, Name: "counter", Type: wire.U8, Period: 2 * time.Second,
			Get: func() (interface{}, error) { return self.counter, nil }},
	}
	for _, tm := range tms {
		if err := s.AddTelemetry(self.Node, tm); err != nil {
			return errors.Trace(err)
		}
	}
	cmds := []*tree.Command{
		{ID: tree.AutoID, Name: "my_command",
			Args: []tree.Arg{
				{Name: "arg1", Type: wire.U16, Min: tree.Bound(5), Max: tree.Bound(10)},
				{Name: "arg2", Type: wire.I16},
				{Name: "arg3", Type: wire.F32, Max: tree.Bound(1000)},
			},
			Return:  wire.U8,
			Handler: self.myCommand},
		{ID: tree.AutoID, Name: "add",
			Args:   []tree.Arg{{Name: "a", Type: wire.U16}, {Name: "b", Type: wire.U16}},
			Return: wire.U16,
			Handler: func(_ context.Context, args wire.Args) (interface{}, error) {
				return args.Uint(0) + args.Uint(1), nil
			}},
		{ID: tree.AutoID, Name: "set_mode",
			Args:    []tree.Arg{{Name: "mode", Type: Mode.Type()}},
			Return:  wire.Void,
			Handler: self.setMode},
	}
	for _, c := range cmds {
		if err := s.AddCommand(self.Node, c); err != nil {
			return errors.Trace(err)
		}
	}
	return s.Register(parent, self.Node)
}

func (self *Component) myCommand(ctx context.Context, args wire.Args) (interface{}, error) {
	self.calls++
	self.counter++
	self.log.Infof("%s my_command arg1=%d arg2=%d arg3=%g", self.Node, args.Uint(0), args.Int(1), args.Float(2))
	return 0, nil
}

func (self *Component) setMode(ctx context.Context, args wire.Args) (interface{}, error) {
	self.mode = args.Enum(0)
	self.safe = false
	return nil, nil
}

func (self *Component) onDisconnect() {
	self.safe = true
	self.log.Infof("%s back to safe state after GCS disconnect", self.Node)
}
