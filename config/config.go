// Package config reads the link configuration from HCL sources.
//
//	link { name = "sat" listen = ":10015" telemetry = "127.0.0.1:10016" tick_ms = 100 }
//	framing { marker = "0xDEADBEEF" length_field = true id_type = "U16" max_packet = 1024 }
//	telemetry { by_period = true packet_header = true }
//	mdb { out_dir = "mdb" version = "1.0" formats = ["csv", "yaml"] }
//	metrics { listen = ":9110" }
//	include "local.hcl" { optional = true }
package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/link"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/transport"
	"github.com/rdx-aegse/yamcs-link/wire"
)

const (
	DefaultName          = "yamcs_link"
	DefaultListen        = ":10015"
	DefaultTelemetryAddr = "127.0.0.1:10016"
	DefaultTick          = 100 * time.Millisecond
)

type Config struct {
	includeSeen map[string]struct{}
	XXX_Include []Source `hcl:"include"`

	Link struct {
		Name              string `hcl:"name"`
		Listen            string `hcl:"listen"`
		Telemetry         string `hcl:"telemetry"`
		TickMs            int    `hcl:"tick_ms"`
		MaxPollPerTick    int    `hcl:"max_poll_per_tick"`
		SendWithoutClient bool   `hcl:"send_without_client"`
		LogLevel          string `hcl:"log_level"`
	} `hcl:"link"`

	Framing struct {
		Marker      string `hcl:"marker"`
		LengthField *bool  `hcl:"length_field"`
		IDType      string `hcl:"id_type"`
		MaxPacket   int    `hcl:"max_packet"`
	} `hcl:"framing"`

	Telemetry struct {
		ByPeriod     bool `hcl:"by_period"`
		PacketHeader bool `hcl:"packet_header"`
	} `hcl:"telemetry"`

	Mdb struct {
		OutDir  string   `hcl:"out_dir"`
		Name    string   `hcl:"name"`
		Version string   `hcl:"version"`
		Formats []string `hcl:"formats"`
	} `hcl:"mdb"`

	Metrics struct {
		Listen string `hcl:"listen"`
	} `hcl:"metrics"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (self *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	self.includeSeen[source.Name] = struct{}{}
	self.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}
	if err = hcl.Unmarshal(bs, self); err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []Source
	includes, self.XXX_Include = self.XXX_Include, nil
	for _, include := range includes {
		if _, ok := self.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		self.read(log, fs, include, errs)
	}
}

// ReadConfig merges sources in order, later values overwrite earlier.
// With OsFullReader, includes are relative to the first source directory.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}
	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{includeSeen: make(map[string]struct{})}
	errs := make([]error, 0, 4)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return nil, err
	}
	return c, nil
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (self *Config) Name() string {
	if self.Link.Name == "" {
		return DefaultName
	}
	return self.Link.Name
}

func (self *Config) TickPeriod() time.Duration {
	return helpers.IntMillisecondDefault(self.Link.TickMs, DefaultTick)
}

func (self *Config) LogLevel() (log2.Level, error) {
	if self.Link.LogLevel == "" {
		return log2.LInfo, nil
	}
	return log2.ParseLevel(self.Link.LogLevel)
}

func (self *Config) FrameConfig() (frame.Config, error) {
	fc := frame.DefaultConfig()
	if s := self.Framing.Marker; s != "" {
		marker, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
		if err != nil {
			return fc, errors.NotValidf("framing marker=%q", s)
		}
		fc.Marker = uint32(marker)
	}
	if self.Framing.LengthField != nil {
		fc.LengthField = *self.Framing.LengthField
	}
	if s := self.Framing.IDType; s != "" {
		t, err := wire.ParseType(strings.ToUpper(s))
		if err != nil {
			return fc, errors.Annotate(err, "framing id_type")
		}
		fc.IDType = t
	}
	if self.Framing.MaxPacket != 0 {
		fc.MaxPacket = self.Framing.MaxPacket
	}
	return fc, errors.Annotate(fc.Validate(), "framing")
}

func (self *Config) SchemaOptions() schema.Options {
	return schema.Options{
		Name:         self.Mdb.Name,
		Version:      self.Mdb.Version,
		ByPeriod:     self.Telemetry.ByPeriod,
		TickPeriod:   self.TickPeriod(),
		PacketHeader: self.Telemetry.PacketHeader,
	}
}

func (self *Config) LinkConfig() (link.Config, error) {
	fc, err := self.FrameConfig()
	if err != nil {
		return link.Config{}, err
	}
	return link.Config{
		Name:              self.Name(),
		Framing:           fc,
		Schema:            self.SchemaOptions(),
		SchemaFormats:     self.Mdb.Formats,
		SendWithoutClient: self.Link.SendWithoutClient,
		MaxPollPerTick:    self.Link.MaxPollPerTick,
	}, nil
}

func (self *Config) TransportOptions(stat *link.Stat) transport.Options {
	opt := transport.Options{
		ListenAddr:    self.Link.Listen,
		TelemetryAddr: self.Link.Telemetry,
	}
	if opt.ListenAddr == "" {
		opt.ListenAddr = DefaultListen
	}
	if opt.TelemetryAddr == "" {
		opt.TelemetryAddr = DefaultTelemetryAddr
	}
	if fc, err := self.FrameConfig(); err == nil {
		opt.ReadSize = fc.MaxPacket
	}
	if stat != nil {
		opt.RecvCounter = stat.RecvBytes
		opt.SendCounter = stat.SendBytes
	}
	return opt
}
