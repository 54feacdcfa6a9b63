// Package frame is the byte level contract with the GCS command postprocessor.
//
// Command frame layout, all big-endian:
//
//	marker(4) [length(2)] id(IDType) args...
//
// The length field, when enabled, counts bytes after itself.
// Telemetry egress carries no local framing.
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/wire"
)

const (
	DefaultMarker    = uint32(0xDEADBEEF)
	DefaultMaxPacket = 1024

	MarkerSize = 4
	LengthSize = 2
)

type Config struct {
	Marker      uint32
	LengthField bool
	IDType      wire.Type
	MaxPacket   int
}

// DefaultConfig matches the deployed command postprocessor.
func DefaultConfig() Config {
	return Config{
		Marker:      DefaultMarker,
		LengthField: true,
		IDType:      wire.U16,
		MaxPacket:   DefaultMaxPacket,
	}
}

func (self Config) HeaderSize() int {
	if self.LengthField {
		return MarkerSize + LengthSize
	}
	return MarkerSize
}

func (self Config) Validate() error {
	switch self.IDType.Kind() {
	case wire.KindU8, wire.KindU16, wire.KindU32:
	default:
		return errors.NotValidf("framing id type=%s (want U8, U16 or U32)", self.IDType)
	}
	min := self.HeaderSize() + self.IDType.Size()
	if self.MaxPacket < min {
		return errors.NotValidf("framing max_packet=%d below header+id=%d", self.MaxPacket, min)
	}
	if self.LengthField && self.MaxPacket-self.HeaderSize() > 0xffff {
		return errors.NotValidf("framing max_packet=%d exceeds length field capacity", self.MaxPacket)
	}
	return nil
}

func (self Config) String() string {
	return fmt.Sprintf("marker=%#08x length_field=%t id=%s max_packet=%d",
		self.Marker, self.LengthField, self.IDType, self.MaxPacket)
}

type Codec struct {
	cfg Config
}

func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotate(err, "frame.NewCodec")
	}
	return &Codec{cfg: cfg}, nil
}

func MustCodec(cfg Config) *Codec {
	c, err := NewCodec(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func (self *Codec) Config() Config { return self.cfg }

// Strip validates header of one complete frame and returns the payload (command id + args).
func (self *Codec) Strip(b []byte) ([]byte, error) {
	if len(b) > self.cfg.MaxPacket {
		return nil, &FrameError{Reason: ReasonOversize, Declared: len(b), Actual: self.cfg.MaxPacket}
	}
	if len(b) < MarkerSize {
		return nil, &FrameError{Reason: ReasonTruncated, Declared: self.cfg.HeaderSize(), Actual: len(b)}
	}
	if marker := binary.BigEndian.Uint32(b); marker != self.cfg.Marker {
		return nil, &FrameError{Reason: ReasonMarker, Expected: self.cfg.Marker, Received: marker}
	}
	if !self.cfg.LengthField {
		return b[MarkerSize:], nil
	}
	if len(b) < MarkerSize+LengthSize {
		return nil, &FrameError{Reason: ReasonTruncated, Declared: self.cfg.HeaderSize(), Actual: len(b)}
	}
	declared := int(binary.BigEndian.Uint16(b[MarkerSize:]))
	payload := b[MarkerSize+LengthSize:]
	if declared != len(payload) {
		return nil, &FrameError{Reason: ReasonLength, Declared: declared, Actual: len(payload)}
	}
	return payload, nil
}

// Wrap is the GCS side: prepends marker and optional length.
func (self *Codec) Wrap(payload []byte) ([]byte, error) {
	total := self.cfg.HeaderSize() + len(payload)
	if total > self.cfg.MaxPacket {
		return nil, &FrameError{Reason: ReasonOversize, Declared: total, Actual: self.cfg.MaxPacket}
	}
	b := make([]byte, self.cfg.HeaderSize(), total)
	binary.BigEndian.PutUint32(b, self.cfg.Marker)
	if self.cfg.LengthField {
		binary.BigEndian.PutUint16(b[MarkerSize:], uint16(len(payload)))
	}
	return append(b, payload...), nil
}

// SplitID reads the command id from the start of payload.
func (self *Codec) SplitID(payload []byte) (int, []byte, error) {
	v, n, err := wire.Decode(self.cfg.IDType, payload)
	if err != nil {
		return 0, nil, &FrameError{Reason: ReasonNoID, Declared: self.cfg.IDType.Size(), Actual: len(payload)}
	}
	return int(wire.Args{v}.Uint(0)), payload[n:], nil
}

// Command builds complete frame for command id with encoded args.
func (self *Codec) Command(id int, args []byte) ([]byte, error) {
	payload, err := wire.Encode(self.cfg.IDType, id)
	if err != nil {
		return nil, errors.Annotatef(err, "command id=%d", id)
	}
	return self.Wrap(append(payload, args...))
}
