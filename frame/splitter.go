package frame

import (
	"bytes"
	"encoding/binary"
)

// Sizer resolves command id to encoded argument size.
// Used to find frame boundaries when the length field is disabled.
type Sizer func(id int) (argSize int, ok bool)

// Splitter reassembles complete frames from a stream transport.
// Not safe for concurrent use.
type Splitter struct {
	codec  *Codec
	sizer  Sizer
	marker [MarkerSize]byte
	buf    []byte
	// boundary is true when buf starts where a frame must start:
	// stream start or right after a complete frame.
	boundary bool
}

func NewSplitter(codec *Codec, sizer Sizer) *Splitter {
	s := &Splitter{codec: codec, sizer: sizer, boundary: true}
	binary.BigEndian.PutUint32(s.marker[:], codec.cfg.Marker)
	return s
}

func (self *Splitter) Write(p []byte) (int, error) {
	self.buf = append(self.buf, p...)
	return len(p), nil
}

func (self *Splitter) Buffered() int { return len(self.buf) }
func (self *Splitter) Reset() {
	self.buf = self.buf[:0]
	self.boundary = true
}

// Next returns one complete frame, or nil when more input is required.
// Non-nil *FrameError reports skipped bytes; call Next again to continue.
// At a frame boundary a wrong marker is ReasonMarker, elsewhere ReasonResync.
// Without length field, a sized frame followed by anything but a marker
// is ReasonFraming: the counterpart most likely sends a length field.
func (self *Splitter) Next() ([]byte, error) {
	cfg := self.codec.cfg
	if len(self.buf) < MarkerSize {
		return nil, nil
	}
	if !bytes.Equal(self.buf[:MarkerSize], self.marker[:]) {
		received := binary.BigEndian.Uint32(self.buf)
		skip := self.skipGarbage()
		if self.boundary {
			self.boundary = false
			return nil, &FrameError{Reason: ReasonMarker, Expected: cfg.Marker, Received: received, Actual: skip}
		}
		return nil, &FrameError{Reason: ReasonResync, Actual: skip}
	}

	var total int
	sized := false
	id := 0
	if cfg.LengthField {
		if len(self.buf) < MarkerSize+LengthSize {
			return nil, nil
		}
		total = MarkerSize + LengthSize + int(binary.BigEndian.Uint16(self.buf[MarkerSize:]))
	} else {
		head := MarkerSize + cfg.IDType.Size()
		if len(self.buf) < head {
			return nil, nil
		}
		var err error
		if id, _, err = self.codec.SplitID(self.buf[MarkerSize:head]); err != nil {
			return nil, err
		}
		total = head
		if self.sizer != nil {
			if size, ok := self.sizer(id); ok {
				total += size
				sized = true
			}
		}
	}
	if total > cfg.MaxPacket {
		// drop the marker so the next call searches for a new one
		self.consume(1)
		self.boundary = false
		return nil, &FrameError{Reason: ReasonOversize, Declared: total, Actual: cfg.MaxPacket}
	}
	if len(self.buf) < total {
		return nil, nil
	}
	if sized && !self.markerFollows(total) {
		self.consume(1)
		skip := 1 + self.skipGarbage()
		self.boundary = false
		return nil, &FrameError{Reason: ReasonFraming, Expected: cfg.Marker, LengthField: cfg.LengthField,
			ID: id, Declared: total, Actual: skip}
	}
	frame := append([]byte(nil), self.buf[:total]...)
	self.consume(total)
	self.boundary = true
	return frame, nil
}

// markerFollows reports whether bytes after offset are empty or (a prefix of) the marker.
func (self *Splitter) markerFollows(offset int) bool {
	rest := self.buf[offset:]
	if len(rest) > MarkerSize {
		rest = rest[:MarkerSize]
	}
	return bytes.HasPrefix(self.marker[:], rest)
}

// skipGarbage drops bytes up to the next marker and returns their count.
func (self *Splitter) skipGarbage() int {
	if len(self.buf) == 0 {
		return 0
	}
	skip := len(self.buf)
	if i := bytes.Index(self.buf[1:], self.marker[:]); i >= 0 {
		skip = i + 1
	} else {
		// keep a tail which may be the start of a marker split across reads
		for keep := MarkerSize - 1; keep > 0; keep-- {
			if len(self.buf) > keep && bytes.HasPrefix(self.marker[:], self.buf[len(self.buf)-keep:]) {
				skip = len(self.buf) - keep
				break
			}
		}
	}
	self.consume(skip)
	return skip
}

func (self *Splitter) consume(n int) {
	rest := copy(self.buf, self.buf[n:])
	self.buf = self.buf[:rest]
}
