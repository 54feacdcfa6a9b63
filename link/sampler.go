package link

import (
	"time"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
)

// PacketTypeTM is the packet type header value of telemetry packets.
const PacketTypeTM = 0

// Packet is the encoded values of one sampling pass in traversal order.
// Group, Name and Period are for logs only, they are not sent.
type Packet struct {
	Group  int
	Name   string
	Period time.Duration
	Data   []byte
}

// Sampler reads telemetry accessors and encodes packets.
// A failing accessor never breaks packet layout: its slot is filled with
// the zero value of its type (first member for enums), logged and counted.
type Sampler struct {
	log    *log2.Log
	stat   *Stat
	opt    schema.Options
	root   string
	all    []*tree.Telemetry
	groups []tree.Group
	last   []time.Time
}

// NewSampler captures the telemetry layout; t must not change afterwards.
func NewSampler(t *tree.Tree, opt schema.Options, log *log2.Log, stat *Stat) *Sampler {
	groups := t.Groups()
	return &Sampler{
		log:    log,
		stat:   stat,
		opt:    opt,
		root:   t.Root().Name(),
		all:    t.Telemetry(),
		groups: groups,
		last:   make([]time.Time, len(groups)),
	}
}

// SampleTick encodes every telemetry point into one packet.
func (self *Sampler) SampleTick() Packet {
	return Packet{
		Group:  0,
		Name:   schema.PacketName(self.root, self.opt.TickPeriod),
		Period: self.opt.TickPeriod,
		Data:   self.encode(self.all, 0),
	}
}

// Due returns packets of period groups whose period elapsed since they were last sampled.
// Every group is due on first call; period 0 group is due on every call.
func (self *Sampler) Due(now time.Time) []Packet {
	packets := make([]Packet, 0, len(self.groups))
	for i := range self.groups {
		g := &self.groups[i]
		if !self.last[i].IsZero() && now.Sub(self.last[i]) < g.Period {
			continue
		}
		self.last[i] = now
		packets = append(packets, Packet{
			Group:  g.ID,
			Name:   schema.PacketName(self.root, g.Period),
			Period: g.Period,
			Data:   self.encode(g.Telemetry, g.ID),
		})
	}
	return packets
}

// Sample is SampleTick or Due depending on Options.ByPeriod.
func (self *Sampler) Sample(now time.Time) []Packet {
	if self.opt.ByPeriod {
		return self.Due(now)
	}
	if len(self.all) == 0 {
		return nil
	}
	return []Packet{self.SampleTick()}
}

func (self *Sampler) encode(tms []*tree.Telemetry, group int) []byte {
	size := schema.HeaderSize(self.opt)
	for _, tm := range tms {
		size += tm.Type.Size()
	}
	buf := make([]byte, 0, size)
	if self.opt.PacketHeader {
		buf = append(buf, PacketTypeTM, byte(group))
	}
	for _, tm := range tms {
		v, err := safeGet(tm)
		if err == nil {
			var next []byte
			if next, err = wire.Append(buf, tm.Type, v); err == nil {
				buf = next
				continue
			}
		}
		self.stat.AccessorFailures.Inc()
		self.log.Errorf("telemetry=%s sentinel substituted err=%v", tm, err)
		// zero value always encodes
		buf, _ = wire.Append(buf, tm.Type, wire.Zero(tm.Type))
	}
	return buf
}

func safeGet(tm *tree.Telemetry) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("accessor panic: %v", r)
		}
	}()
	v, err = tm.Get()
	return v, errors.Annotate(err, "accessor")
}
