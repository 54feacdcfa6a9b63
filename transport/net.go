package transport

import (
	"io"
	"net"
	"syscall"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/log2"
	"golang.org/x/sys/unix"
)

const DefaultReadSize = 1024

type Options struct {
	// ListenAddr accepts one GCS command connection at a time, host:port.
	ListenAddr string
	// TelemetryAddr is the fixed UDP telemetry destination, host:port.
	TelemetryAddr string
	ReadSize      int
	// Optional byte counters.
	RecvCounter prometheus.Counter
	SendCounter prometheus.Counter
}

// Net is TCP command ingress plus UDP telemetry egress.
// Readiness is checked with zero timeout poll, so Poll never blocks.
type Net struct {
	log      *log2.Log
	opt      Options
	listener *net.TCPListener
	lraw     syscall.RawConn
	conn     *net.TCPConn
	craw     syscall.RawConn
	r        io.Reader
	udp      *net.UDPConn
	w        io.Writer
	buf      []byte
	closed   bool
}

var _ Transporter = &Net{}

func Listen(opt Options, log *log2.Log) (*Net, error) {
	if opt.ReadSize <= 0 {
		opt.ReadSize = DefaultReadSize
	}
	laddr, err := net.ResolveTCPAddr("tcp", opt.ListenAddr)
	if err != nil {
		return nil, errors.Annotatef(err, "listen addr=%s", opt.ListenAddr)
	}
	uaddr, err := net.ResolveUDPAddr("udp", opt.TelemetryAddr)
	if err != nil {
		return nil, errors.Annotatef(err, "telemetry addr=%s", opt.TelemetryAddr)
	}
	listener, err := net.ListenTCP("tcp", laddr)
	if err != nil {
		return nil, errors.Annotate(err, "listen")
	}
	lraw, err := listener.SyscallConn()
	if err != nil {
		_ = listener.Close()
		return nil, errors.Annotate(err, "listener SyscallConn")
	}
	udp, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		_ = listener.Close()
		return nil, errors.Annotate(err, "telemetry dial")
	}
	self := &Net{
		log:      log,
		opt:      opt,
		listener: listener,
		lraw:     lraw,
		udp:      udp,
		w:        io.Writer(udp),
		buf:      make([]byte, opt.ReadSize),
	}
	if opt.SendCounter != nil {
		const udpOverhead = 28
		self.w = helpers.NewStatWriter(udp, opt.SendCounter, udpOverhead)
	}
	log.Infof("transport listen=%s telemetry=%s", listener.Addr(), uaddr)
	return self, nil
}

func (self *Net) Addr() net.Addr { return self.listener.Addr() }

func (self *Net) Connected() bool { return self.conn != nil }

func (self *Net) Send(packet []byte) error {
	if self.closed {
		return ErrClosed
	}
	_, err := self.w.Write(packet)
	return errors.Annotate(err, "telemetry send")
}

func (self *Net) Poll() (Event, []byte, error) {
	if self.closed {
		return EventNone, nil, ErrClosed
	}
	if self.conn != nil {
		ready, err := pollReadable(self.craw)
		if err != nil {
			self.dropConn()
			return EventDisconnected, nil, errors.Annotate(err, "poll client")
		}
		if ready {
			n, err := self.r.Read(self.buf)
			if n > 0 {
				return EventData, self.buf[:n], nil
			}
			self.dropConn()
			if err == io.EOF {
				err = nil
			}
			return EventDisconnected, nil, errors.Annotate(err, "client read")
		}
	}

	ready, err := pollReadable(self.lraw)
	if err != nil {
		return EventNone, nil, errors.Annotate(err, "poll listener")
	}
	if !ready {
		return EventNone, nil, nil
	}
	conn, err := self.listener.AcceptTCP()
	if err != nil {
		return EventNone, nil, errors.Annotate(err, "accept")
	}
	if self.conn != nil {
		self.log.Errorf("transport reject second client=%s, serving %s", conn.RemoteAddr(), self.conn.RemoteAddr())
		_ = conn.Close()
		return EventNone, nil, nil
	}
	craw, err := conn.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return EventNone, nil, errors.Annotate(err, "client SyscallConn")
	}
	_ = conn.SetNoDelay(true)
	self.conn, self.craw = conn, craw
	self.r = conn
	if self.opt.RecvCounter != nil {
		const tcpOverhead = 40
		self.r = helpers.NewStatReader(conn, self.opt.RecvCounter, tcpOverhead)
	}
	self.log.Infof("transport client=%s connected", conn.RemoteAddr())
	return EventConnected, nil, nil
}

func (self *Net) Close() error {
	if self.closed {
		return nil
	}
	self.closed = true
	errs := make([]error, 0, 3)
	if self.conn != nil {
		errs = append(errs, self.conn.Close())
		self.conn = nil
	}
	errs = append(errs, self.listener.Close(), self.udp.Close())
	return errors.Annotate(helpers.FoldErrors(errs), "transport close")
}

func (self *Net) dropConn() {
	self.log.Infof("transport client=%s disconnected", self.conn.RemoteAddr())
	_ = self.conn.Close()
	self.conn, self.craw, self.r = nil, nil, nil
}

// pollReadable reports readability (including hangup) without blocking.
func pollReadable(rc syscall.RawConn) (bool, error) {
	var ready bool
	var perr error
	err := rc.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		for {
			n, err := unix.Poll(fds, 0)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				perr = err
				return
			}
			ready = n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
			return
		}
	})
	if err != nil {
		return false, err
	}
	return ready, perr
}
