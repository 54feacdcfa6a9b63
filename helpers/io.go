package helpers

import (
	"io"

	"github.com/juju/errors"
)

// WriteAll pushes a whole frame into a stream that may accept it in parts.
// Zero-length progress without error is io.ErrShortWrite.
func WriteAll(w io.Writer, frame []byte) error {
	total := len(frame)
	for len(frame) > 0 {
		n, err := w.Write(frame)
		if err != nil {
			return errors.Annotatef(err, "write frame offset=%d len=%d", total-len(frame), total)
		}
		if n == 0 {
			return errors.Annotatef(io.ErrShortWrite, "write frame offset=%d len=%d", total-len(frame), total)
		}
		frame = frame[n:]
	}
	return nil
}
