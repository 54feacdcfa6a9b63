package helpers

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// StatReader adds every read byte count plus F overhead to counter V.
type StatReader struct {
	R io.Reader
	V prometheus.Counter
	F int
}

var _ io.Reader = &StatReader{}

func NewStatReader(r io.Reader, counter prometheus.Counter, fix int) io.Reader {
	return &StatReader{R: r, F: fix, V: counter}
}

func (sr *StatReader) Read(p []byte) (n int, err error) {
	n, err = sr.R.Read(p)
	if n > 0 {
		sr.V.Add(float64(n + sr.F))
	}
	return
}

type StatWriter struct {
	W io.Writer
	V prometheus.Counter
	F int
}

var _ io.Writer = &StatWriter{}

func NewStatWriter(w io.Writer, counter prometheus.Counter, fix int) io.Writer {
	return &StatWriter{W: w, F: fix, V: counter}
}

func (sw *StatWriter) Write(p []byte) (n int, err error) {
	n, err = sw.W.Write(p)
	if n > 0 {
		sw.V.Add(float64(n + sw.F))
	}
	return
}
