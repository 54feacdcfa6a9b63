package tree

import (
	"sort"
	"time"
)

// Group is telemetry sharing one refresh period, sent as one packet.
type Group struct {
	ID        int
	Period    time.Duration
	Telemetry []*Telemetry
}

// Size is the encoded length of all values in the group.
func (self *Group) Size() int {
	size := 0
	for _, tm := range self.Telemetry {
		size += tm.Type.Size()
	}
	return size
}

// Groups splits telemetry by period. Group id is the index in ascending
// period order; members keep traversal order.
func (self *Tree) Groups() []Group {
	byPeriod := make(map[time.Duration][]*Telemetry)
	periods := make([]time.Duration, 0)
	for _, tm := range self.Telemetry() {
		if _, ok := byPeriod[tm.Period]; !ok {
			periods = append(periods, tm.Period)
		}
		byPeriod[tm.Period] = append(byPeriod[tm.Period], tm)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	groups := make([]Group, len(periods))
	for i, p := range periods {
		groups[i] = Group{ID: i, Period: p, Telemetry: byPeriod[p]}
	}
	return groups
}
