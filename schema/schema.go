// Package schema derives the mission database from the registration tree.
// Output is a pure function of registration order.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
)

type Options struct {
	// Name of mission database, root node name by default.
	Name    string
	Version string
	// ByPeriod emits one packet per telemetry period,
	// otherwise one packet holds all telemetry.
	ByPeriod bool
	// TickPeriod is recorded as the period of the single packet.
	TickPeriod time.Duration
	// PacketHeader prepends packet type and packet id (U8 each) to telemetry packets.
	PacketHeader bool
}

type Document struct {
	Name       string      `yaml:"name"`
	Version    string      `yaml:"version,omitempty"`
	Header     []Field     `yaml:"packet_header,omitempty"`
	Containers []Container `yaml:"containers"`
	Enums      []Enum      `yaml:"enums,omitempty"`
	Packets    []Packet    `yaml:"packets"`
	Parameters []Parameter `yaml:"parameters"`
	Commands   []Command   `yaml:"commands"`
}

type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Container struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

type Enum struct {
	Name    string       `yaml:"name"`
	Width   string       `yaml:"width"`
	Members []EnumMember `yaml:"members"`
}

type EnumMember struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type Packet struct {
	ID         int      `yaml:"id"`
	Name       string   `yaml:"name"`
	PeriodMs   int64    `yaml:"period_ms"`
	Size       int      `yaml:"size"`
	Parameters []string `yaml:"parameters"`
}

type Parameter struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Container string `yaml:"container"`
	Type      string `yaml:"type"`
	PeriodMs  int64  `yaml:"period_ms"`
	Packet    string `yaml:"packet"`
	// Offset is the byte position within the packet, header included.
	Offset      int    `yaml:"offset"`
	Description string `yaml:"description,omitempty"`
}

type Command struct {
	ID          int        `yaml:"id"`
	Name        string     `yaml:"name"`
	Container   string     `yaml:"container"`
	Return      string     `yaml:"return"`
	Args        []Argument `yaml:"args,omitempty"`
	Description string     `yaml:"description,omitempty"`
}

type Argument struct {
	Name string   `yaml:"name"`
	Type string   `yaml:"type"`
	Min  *float64 `yaml:"min,omitempty"`
	Max  *float64 `yaml:"max,omitempty"`
}

// HeaderSize is the telemetry packet header length for opt.
func HeaderSize(opt Options) int {
	if opt.PacketHeader {
		return 2
	}
	return 0
}

// PacketName is shared by the database and the sampler logs.
func PacketName(root string, period time.Duration) string {
	return fmt.Sprintf("tm-%s-%dms", root, period.Milliseconds())
}

// MaxHeaderGroups is the packet count addressable by the U8 packet_id header field.
const MaxHeaderGroups = 256

// Generate walks t read-only. Tree must be validated (it always is once registered).
func Generate(t *tree.Tree, opt Options) (*Document, error) {
	root := t.Root().Name()
	doc := &Document{
		Name:    opt.Name,
		Version: opt.Version,
	}
	if doc.Name == "" {
		doc.Name = root
	}
	if opt.PacketHeader {
		doc.Header = []Field{{Name: "packet_type", Type: wire.U8.String()}, {Name: "packet_id", Type: wire.U8.String()}}
	}

	enums := make(map[string]*wire.Enum)
	useType := func(owner string, typ wire.Type) error {
		e := typ.Enum()
		if e == nil {
			return nil
		}
		if prev, ok := enums[e.Name]; ok && prev != e {
			return errors.Errorf("%s: enum name=%s declared twice with different members", owner, e.Name)
		}
		enums[e.Name] = e
		return nil
	}

	err := t.Walk(func(parent, n *tree.Node) error {
		c := Container{Name: n.QualifiedName()}
		if parent != nil {
			c.Parent = parent.QualifiedName()
		}
		doc.Containers = append(doc.Containers, c)
		for _, cmd := range n.Commands() {
			dc := Command{
				ID:          cmd.ID,
				Name:        cmd.QualifiedName(),
				Container:   n.QualifiedName(),
				Return:      cmd.Return.String(),
				Description: cmd.Description,
			}
			if err := useType(dc.Name, cmd.Return); err != nil {
				return err
			}
			for _, arg := range cmd.Args {
				if err := useType(dc.Name, arg.Type); err != nil {
					return err
				}
				dc.Args = append(dc.Args, Argument{Name: arg.Name, Type: arg.Type.String(), Min: arg.Min, Max: arg.Max})
			}
			doc.Commands = append(doc.Commands, dc)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Annotate(err, "schema.Generate")
	}

	groups := t.Groups()
	if !opt.ByPeriod {
		all := t.Telemetry()
		groups = []tree.Group{{ID: 0, Period: opt.TickPeriod, Telemetry: all}}
	}
	if opt.PacketHeader && len(groups) > MaxHeaderGroups {
		return nil, errors.NotValidf("schema.Generate period groups=%d exceed packet_id U8 range, max=%d", len(groups), MaxHeaderGroups)
	}
	for _, g := range groups {
		p := Packet{
			ID:       g.ID,
			Name:     PacketName(root, g.Period),
			PeriodMs: g.Period.Milliseconds(),
			Size:     HeaderSize(opt) + g.Size(),
		}
		offset := HeaderSize(opt)
		for _, tm := range g.Telemetry {
			if err := useType(tm.QualifiedName(), tm.Type); err != nil {
				return nil, errors.Annotate(err, "schema.Generate")
			}
			p.Parameters = append(p.Parameters, tm.QualifiedName())
			doc.Parameters = append(doc.Parameters, Parameter{
				ID:          tm.ID,
				Name:        tm.QualifiedName(),
				Container:   containerOf(tm.QualifiedName()),
				Type:        tm.Type.String(),
				PeriodMs:    tm.Period.Milliseconds(),
				Packet:      p.Name,
				Offset:      offset,
				Description: tm.Description,
			})
			offset += tm.Type.Size()
		}
		doc.Packets = append(doc.Packets, p)
	}

	names := make([]string, 0, len(enums))
	for name := range enums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := enums[name]
		de := Enum{Name: e.Name, Width: e.Width.String()}
		for _, m := range e.Members {
			de.Members = append(de.Members, EnumMember{Name: m.Name, Value: m.Value})
		}
		doc.Enums = append(doc.Enums, de)
	}
	return doc, nil
}

func containerOf(qualified string) string {
	if i := strings.LastIndex(qualified, tree.Separator); i >= 0 {
		return qualified[:i]
	}
	return ""
}
