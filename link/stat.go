package link

// Counters are exported via prometheus; last activity is read by health checks.
// Values are updated atomically but not consistently with each other.

import (
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rdx-aegse/yamcs-link/helpers/atomic_clock"
)

const namespace = "yamcs_link"

// Drop stages of inbound commands.
const (
	StageFrame   = "frame"
	StageID      = "id"
	StageArgs    = "args"
	StageHandler = "handler"
)

type Stat struct {
	TelemetryPackets prometheus.Counter
	TelemetryBytes   prometheus.Counter
	TelemetryErrors  prometheus.Counter
	AccessorFailures prometheus.Counter
	CommandsReceived prometheus.Counter
	CommandsExecuted prometheus.Counter
	CommandsDropped  *prometheus.CounterVec
	RecvBytes        prometheus.Counter
	SendBytes        prometheus.Counter
	Connections      prometheus.Counter

	lastRecv     atomic_clock.Clock
	lastSend     atomic_clock.Clock
	lastActivity []prometheus.Collector
}

func NewStat() *Stat {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	self := &Stat{
		TelemetryPackets: counter("telemetry_packets_total", "Telemetry packets sent."),
		TelemetryBytes:   counter("telemetry_bytes_total", "Telemetry payload bytes sent."),
		TelemetryErrors:  counter("telemetry_send_errors_total", "Telemetry packets failed to send."),
		AccessorFailures: counter("telemetry_accessor_failures_total", "Telemetry values replaced by sentinel."),
		CommandsReceived: counter("commands_received_total", "Command frames received."),
		CommandsExecuted: counter("commands_executed_total", "Commands whose handler returned without error."),
		CommandsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "Commands rejected, by stage.",
		}, []string{"stage"}),
		RecvBytes:   counter("recv_bytes_total", "Bytes received on command link, TCP/IP overhead included."),
		SendBytes:   counter("send_bytes_total", "Bytes sent on telemetry link, UDP/IP overhead included."),
		Connections: counter("connections_total", "Accepted GCS connections."),
	}
	seconds := func(name, help string, f func() time.Time) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
			func() float64 {
				if t := f(); !t.IsZero() {
					return float64(t.UnixNano()) / 1e9
				}
				return 0
			})
	}
	self.lastActivity = []prometheus.Collector{
		seconds("last_recv_timestamp_seconds", "Time of last received command data.", self.LastRecv),
		seconds("last_send_timestamp_seconds", "Time of last sent telemetry packet.", self.LastSend),
	}
	return self
}

func (self *Stat) Collectors() []prometheus.Collector {
	return append([]prometheus.Collector{
		self.TelemetryPackets, self.TelemetryBytes, self.TelemetryErrors, self.AccessorFailures,
		self.CommandsReceived, self.CommandsExecuted, self.CommandsDropped,
		self.RecvBytes, self.SendBytes, self.Connections,
	}, self.lastActivity...)
}

func (self *Stat) Register(r prometheus.Registerer) error {
	for _, c := range self.Collectors() {
		if err := r.Register(c); err != nil {
			return errors.Annotate(err, "stat register")
		}
	}
	return nil
}

func (self *Stat) Dropped(stage string) { self.CommandsDropped.WithLabelValues(stage).Inc() }

func (self *Stat) touchRecv(now time.Time) { self.lastRecv.SetTime(now) }
func (self *Stat) touchSend(now time.Time) { self.lastSend.SetTime(now) }

// LastRecv is the time of last received command, zero if none.
func (self *Stat) LastRecv() time.Time { return self.lastRecv.Time() }

// LastSend is the time of last sent telemetry, zero if none.
func (self *Stat) LastSend() time.Time { return self.lastSend.Time() }
