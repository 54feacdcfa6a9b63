// Package transport moves bytes between the link and the GCS:
// telemetry datagrams out, command stream in.
package transport

import (
	"fmt"
)

var ErrClosed = fmt.Errorf("transport closed")

type Event uint8

const (
	EventNone Event = iota
	EventConnected
	EventDisconnected
	EventData
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventData:
		return "data"
	}
	return fmt.Sprintf("Event(%d)", uint8(e))
}

// Transporter is polled from a single caller-driven loop.
type Transporter interface {
	// Send one telemetry packet, never blocks for long.
	Send(packet []byte) error
	// Poll returns one pending event without blocking, EventNone if there is nothing.
	// Data is valid until next Poll.
	Poll() (Event, []byte, error)
	// Connected reports whether the GCS command client is attached.
	Connected() bool
	Close() error
}
