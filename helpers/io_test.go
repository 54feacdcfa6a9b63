package helpers

import (
	"bytes"
	"io"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

// chunkWriter accepts at most limit bytes per call and fails after budget bytes.
type chunkWriter struct {
	buf    bytes.Buffer
	limit  int
	budget int
}

func (self *chunkWriter) Write(p []byte) (int, error) {
	if self.budget == 0 {
		return 0, io.ErrClosedPipe
	}
	if len(p) > self.limit {
		p = p[:self.limit]
	}
	if self.budget > 0 && len(p) > self.budget {
		p = p[:self.budget]
	}
	if self.budget > 0 {
		self.budget -= len(p)
	}
	return self.buf.Write(p)
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	frame := MustHex("deadbeef 0006 0001 0002 0003")
	type Case struct {
		name   string
		w      *chunkWriter
		expect string
		err    error
	}
	cases := []Case{
		{"whole", &chunkWriter{limit: 64, budget: -1}, "deadbeef 00060001 00020003", nil},
		{"segmented", &chunkWriter{limit: 3, budget: -1}, "deadbeef 00060001 00020003", nil},
		{"byte-at-a-time", &chunkWriter{limit: 1, budget: -1}, "deadbeef 00060001 00020003", nil},
		{"closed-mid-frame", &chunkWriter{limit: 4, budget: 6}, "deadbeef 0006", io.ErrClosedPipe},
		{"no-progress", &chunkWriter{limit: 0, budget: -1}, "", io.ErrShortWrite},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			err := WriteAll(c.w, frame)
			assert.Equal(t, c.err, errors.Cause(err))
			assert.Equal(t, c.expect, FormatHex(c.w.buf.Bytes()))
		})
	}
}
