// Package link is the runtime side of the bridge: telemetry sampling,
// command dispatch and the caller-driven service loop.
package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/transport"
	"github.com/rdx-aegse/yamcs-link/tree"
)

var (
	ErrNotReady = fmt.Errorf("schema not generated, service phase not started")
	ErrShutdown = fmt.Errorf("service is shut down")
)

const DefaultMaxPollPerTick = 16

type Config struct {
	// Name of the root node.
	Name    string
	Framing frame.Config
	Schema  schema.Options
	// Formats written by GenerateSchema, all when empty.
	SchemaFormats []string
	// SendWithoutClient samples telemetry even when no GCS command client is connected.
	SendWithoutClient bool
	MaxPollPerTick    int
}

type ResultFunc func(*Result, error)

// Service is the host API. Not safe for concurrent use: register, generate
// schema, then call Tick from one loop.
type Service struct {
	cfg       Config
	log       *log2.Log
	stat      *Stat
	tree      *tree.Tree
	codec     *frame.Codec
	transport transport.Transporter

	sampler    *Sampler
	dispatcher *Dispatcher
	splitter   *frame.Splitter
	onResult   ResultFunc

	shutdown     sync.Once
	shutdownErr  error
	shuttingDown bool
}

func New(cfg Config, tr transport.Transporter, log *log2.Log, stat *Stat) (*Service, error) {
	if cfg.Name == "" {
		return nil, errors.NotValidf("link name empty")
	}
	if tr == nil {
		return nil, errors.Errorf("code error link.New transport=nil")
	}
	codec, err := frame.NewCodec(cfg.Framing)
	if err != nil {
		return nil, errors.Annotate(err, "link.New")
	}
	if cfg.MaxPollPerTick <= 0 {
		cfg.MaxPollPerTick = DefaultMaxPollPerTick
	}
	if stat == nil {
		stat = NewStat()
	}
	return &Service{
		cfg:       cfg,
		log:       log,
		stat:      stat,
		tree:      tree.New(cfg.Name),
		codec:     codec,
		transport: tr,
	}, nil
}

func (self *Service) Root() *tree.Node    { return self.tree.Root() }
func (self *Service) Tree() *tree.Tree    { return self.tree }
func (self *Service) Stat() *Stat         { return self.stat }
func (self *Service) Codec() *frame.Codec { return self.codec }

// SetResultFunc observes every dispatched command, dropped ones included.
func (self *Service) SetResultFunc(f ResultFunc) { self.onResult = f }

// Register attaches node under parent, root if parent is nil.
func (self *Service) Register(parent, node *tree.Node) error {
	if parent == nil {
		parent = self.tree.Root()
	}
	return errors.Annotatef(self.tree.RegisterChild(parent, node), "register %s", node)
}

func (self *Service) AddTelemetry(node *tree.Node, tm *tree.Telemetry) error {
	if node == nil {
		node = self.tree.Root()
	}
	return errors.Annotatef(self.tree.AddTelemetry(node, tm), "add telemetry %s", tm.Name)
}

func (self *Service) AddCommand(node *tree.Node, c *tree.Command) error {
	if node == nil {
		node = self.tree.Root()
	}
	return errors.Annotatef(self.tree.AddCommand(node, c), "add command %s", c.Name)
}

// GenerateSchema exports the database into outDir (skipped when empty),
// freezes the tree and starts the service phase. Call once.
func (self *Service) GenerateSchema(outDir string) (*schema.Document, error) {
	if self.tree.Frozen() {
		return nil, errors.Trace(tree.ErrFrozen)
	}
	opt := self.cfg.Schema
	if opt.Name == "" {
		opt.Name = self.cfg.Name
	}
	doc, err := schema.Generate(self.tree, opt)
	if err != nil {
		return nil, errors.Annotate(err, "GenerateSchema")
	}
	if outDir != "" {
		if err = doc.Export(outDir, self.cfg.SchemaFormats); err != nil {
			return nil, errors.Annotate(err, "GenerateSchema")
		}
		self.log.Infof("mission database name=%s written to %s", doc.Name, outDir)
	}
	self.tree.Freeze()
	self.sampler = NewSampler(self.tree, opt, self.log, self.stat)
	self.dispatcher = NewDispatcher(self.tree, self.codec, self.log, self.stat)
	self.splitter = frame.NewSplitter(self.codec, func(id int) (int, bool) {
		if c, ok := self.tree.Command(id); ok {
			return c.ArgSize(), true
		}
		return 0, false
	})
	return doc, nil
}

// Tick services pending commands then sends due telemetry. Never blocks.
// Per-packet failures are logged and counted; returned error is a transport failure.
func (self *Service) Tick(ctx context.Context) error {
	if self.shuttingDown {
		return ErrShutdown
	}
	if self.sampler == nil {
		return ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var terr error
	for i := 0; i < self.cfg.MaxPollPerTick; i++ {
		ev, data, err := self.transport.Poll()
		if err != nil {
			self.log.Errorf("tick poll: %v", err)
			terr = err
		}
		switch ev {
		case transport.EventConnected:
			self.stat.Connections.Inc()
			self.splitter.Reset()
		case transport.EventDisconnected:
			self.splitter.Reset()
			self.disconnectAll()
		case transport.EventData:
			self.stat.touchRecv(time.Now())
			_, _ = self.splitter.Write(data)
			self.dispatchBuffered(ctx)
		}
		if ev == transport.EventNone || err != nil {
			break
		}
	}

	if !self.cfg.SendWithoutClient && !self.transport.Connected() {
		return errors.Annotate(terr, "tick")
	}
	now := time.Now()
	for _, p := range self.sampler.Sample(now) {
		if err := self.transport.Send(p.Data); err != nil {
			self.stat.TelemetryErrors.Inc()
			self.log.Errorf("telemetry packet=%s send: %v", p.Name, err)
			continue
		}
		self.stat.TelemetryPackets.Inc()
		self.stat.TelemetryBytes.Add(float64(len(p.Data)))
		self.stat.touchSend(now)
		if self.log.Enabled(log2.LDebug) {
			self.log.Debugf("telemetry packet=%s len=%d", p.Name, len(p.Data))
		}
	}
	return errors.Annotate(terr, "tick")
}

func (self *Service) dispatchBuffered(ctx context.Context) {
	for {
		raw, err := self.splitter.Next()
		if err != nil {
			self.stat.Dropped(StageFrame)
			self.log.Errorf("command stream: %v", err)
			if self.onResult != nil {
				self.onResult(&Result{State: StateRejected, Stage: StageFrame}, err)
			}
			continue
		}
		if raw == nil {
			return
		}
		r, err := self.dispatcher.Dispatch(ctx, raw)
		if self.onResult != nil {
			self.onResult(r, err)
		}
	}
}

func (self *Service) disconnectAll() {
	if err := self.tree.DisconnectAll(); err != nil {
		self.log.Errorf("OnDisconnect: %v", err)
	}
}

// Shutdown runs OnDisconnect hooks and closes the transport. Idempotent.
func (self *Service) Shutdown() error {
	self.shutdown.Do(func() {
		self.shuttingDown = true
		self.disconnectAll()
		self.shutdownErr = errors.Annotate(self.transport.Close(), "shutdown")
		self.log.Infof("link=%s shutdown", self.cfg.Name)
	})
	return self.shutdownErr
}
