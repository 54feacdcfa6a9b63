package frame

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	ReasonMarker    = "marker mismatch"
	ReasonLength    = "length mismatch"
	ReasonTruncated = "truncated header"
	ReasonOversize  = "oversize"
	ReasonNoID      = "truncated command id"
	ReasonResync    = "garbage skipped"
	ReasonFraming   = "framing mismatch"
)

type FrameError struct {
	Reason   string
	Expected uint32
	Received uint32
	Declared int
	Actual   int
	// Set for ReasonFraming: configured framing the stream disagreed with.
	LengthField bool
	ID          int
}

func (e *FrameError) Error() string {
	switch e.Reason {
	case ReasonMarker:
		s := fmt.Sprintf("frame marker mismatch expected=%#08x received=%#08x, framing config disagrees with GCS postprocessor",
			e.Expected, e.Received)
		if e.Actual != 0 {
			s += fmt.Sprintf(", skipped bytes=%d", e.Actual)
		}
		return s
	case ReasonFraming:
		return fmt.Sprintf("frame framing mismatch command id=%d size=%d not followed by marker, configured marker=%#08x length_field=%t disagrees with GCS postprocessor, skipped bytes=%d",
			e.ID, e.Declared, e.Expected, e.LengthField, e.Actual)
	case ReasonResync:
		return fmt.Sprintf("frame %s bytes=%d", e.Reason, e.Actual)
	}
	return fmt.Sprintf("frame %s declared=%d actual=%d", e.Reason, e.Declared, e.Actual)
}

func IsFrameError(err error) bool {
	_, ok := errors.Cause(err).(*FrameError)
	return ok
}

func IsMarkerMismatch(err error) bool {
	fe, ok := errors.Cause(err).(*FrameError)
	return ok && fe.Reason == ReasonMarker
}

func IsFramingMismatch(err error) bool {
	fe, ok := errors.Cause(err).(*FrameError)
	return ok && fe.Reason == ReasonFraming
}
