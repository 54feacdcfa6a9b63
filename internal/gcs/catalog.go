// Package gcs is the ground side view of a link, built from its mission database.
// Used by the console and by end to end tests.
package gcs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/wire"
)

type Arg struct {
	Name string
	Type wire.Type
}

type Command struct {
	ID     int
	Name   string
	Args   []Arg
	Return wire.Type
}

type Param struct {
	Name string
	Type wire.Type
}

type Packet struct {
	ID     int
	Name   string
	Params []Param
}

type Value struct {
	Name  string
	Value interface{}
}

func (v Value) String() string { return fmt.Sprintf("%s=%v", v.Name, v.Value) }

type Catalog struct {
	codec    *frame.Codec
	header   bool
	commands map[string]*Command
	byID     map[int]*Command
	packets  []*Packet
}

func NewCatalog(doc *schema.Document, codec *frame.Codec) (*Catalog, error) {
	enums := make([]*wire.Enum, 0, len(doc.Enums))
	for _, e := range doc.Enums {
		width, err := wire.ParseType(e.Width)
		if err != nil {
			return nil, errors.Annotatef(err, "enum=%s", e.Name)
		}
		members := make([]wire.EnumValue, len(e.Members))
		for i, m := range e.Members {
			members[i] = wire.EnumValue{Name: m.Name, Value: m.Value}
		}
		enum, err := wire.NewEnum(e.Name, width.Kind(), members...)
		if err != nil {
			return nil, errors.Annotatef(err, "enum=%s", e.Name)
		}
		enums = append(enums, enum)
	}
	parse := func(owner, name string) (wire.Type, error) {
		t, err := wire.ParseType(name, enums...)
		return t, errors.Annotatef(err, "%s", owner)
	}

	self := &Catalog{
		codec:    codec,
		header:   len(doc.Header) != 0,
		commands: make(map[string]*Command, len(doc.Commands)),
		byID:     make(map[int]*Command, len(doc.Commands)),
	}
	for _, dc := range doc.Commands {
		c := &Command{ID: dc.ID, Name: dc.Name}
		var err error
		if c.Return, err = parse(dc.Name, dc.Return); err != nil {
			return nil, err
		}
		for _, da := range dc.Args {
			t, err := parse(dc.Name, da.Type)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, Arg{Name: da.Name, Type: t})
		}
		self.commands[c.Name] = c
		self.byID[c.ID] = c
	}
	types := make(map[string]wire.Type, len(doc.Parameters))
	for _, p := range doc.Parameters {
		t, err := parse(p.Name, p.Type)
		if err != nil {
			return nil, err
		}
		types[p.Name] = t
	}
	for _, dp := range doc.Packets {
		p := &Packet{ID: dp.ID, Name: dp.Name}
		for _, name := range dp.Parameters {
			p.Params = append(p.Params, Param{Name: name, Type: types[name]})
		}
		self.packets = append(self.packets, p)
	}
	return self, nil
}

func (self *Catalog) Commands() []*Command {
	ids := make([]int, 0, len(self.byID))
	for id := range self.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]*Command, len(ids))
	for i, id := range ids {
		result[i] = self.byID[id]
	}
	return result
}

// Command finds by qualified name, unqualified suffix or numeric id.
func (self *Catalog) Command(key string) (*Command, bool) {
	if c, ok := self.commands[key]; ok {
		return c, true
	}
	if id, err := strconv.Atoi(key); err == nil {
		c, ok := self.byID[id]
		return c, ok
	}
	var found *Command
	for name, c := range self.commands {
		if strings.HasSuffix(name, "."+key) {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

// Frame encodes command with arguments given as text: numbers or enum member names.
func (self *Catalog) Frame(c *Command, words []string) ([]byte, error) {
	if len(words) != len(c.Args) {
		return nil, errors.Errorf("command=%s expects %d arguments, given %d", c.Name, len(c.Args), len(words))
	}
	var args []byte
	for i, arg := range c.Args {
		v, err := parseValue(arg.Type, words[i])
		if err != nil {
			return nil, errors.Annotatef(err, "command=%s argument=%s", c.Name, arg.Name)
		}
		if args, err = wire.Append(args, arg.Type, v); err != nil {
			return nil, errors.Annotatef(err, "command=%s argument=%s", c.Name, arg.Name)
		}
	}
	return self.codec.Command(c.ID, args)
}

// Decode splits telemetry datagram into parameter values.
func (self *Catalog) Decode(data []byte) (*Packet, []Value, error) {
	if len(self.packets) == 0 {
		return nil, nil, errors.NotFoundf("telemetry packets")
	}
	p := self.packets[0]
	if self.header {
		if len(data) < 2 {
			return nil, nil, &wire.ShortBufferError{Type: wire.U8, Need: 2, Have: len(data)}
		}
		id := int(data[1])
		if id >= len(self.packets) || self.packets[id].ID != id {
			return nil, nil, errors.NotFoundf("telemetry packet id=%d", id)
		}
		p = self.packets[id]
		data = data[2:]
	}
	values := make([]Value, 0, len(p.Params))
	for _, param := range p.Params {
		v, n, err := wire.Decode(param.Type, data)
		if err != nil {
			return p, values, errors.Annotatef(err, "packet=%s parameter=%s", p.Name, param.Name)
		}
		values = append(values, Value{Name: param.Name, Value: v})
		data = data[n:]
	}
	if len(data) != 0 {
		return p, values, errors.Errorf("packet=%s excess bytes=%d", p.Name, len(data))
	}
	return p, values, nil
}

func parseValue(t wire.Type, s string) (interface{}, error) {
	if t.Enum() != nil {
		if _, ok := t.Enum().ByName(s); ok {
			return s, nil
		}
	}
	switch {
	case t.Backing().IsFloat():
		return strconv.ParseFloat(s, 64)
	case t.Signed():
		return strconv.ParseInt(s, 0, 64)
	}
	return strconv.ParseUint(s, 0, 64)
}
