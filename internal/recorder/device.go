package recorder

import (
	"fmt"
	"time"
)

// Format describes a linear PCM capture format.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Float      bool
	BigEndian  bool
}

// CaptureFormat is the only format the recorder produces:
// mono, 16-bit signed integer PCM, 44.1kHz, little-endian.
var CaptureFormat = Format{
	SampleRate: 44100,
	Channels:   1,
	BitDepth:   16,
}

func (f Format) String() string {
	kind := "int"
	if f.Float {
		kind = "float"
	}
	endian := "le"
	if f.BigEndian {
		endian = "be"
	}
	return fmt.Sprintf("%dHz/%dch/%dbit-%s-%s", f.SampleRate, f.Channels, f.BitDepth, kind, endian)
}

// Device is a capture device bound to one output file.
//
// Prepare allocates buffers, opens the input and creates the output file so
// that Record can begin capture without startup jitter. Record starts capture
// for exactly d and returns once capture is running; the outcome arrives later
// on Done. Done delivers exactly one value: nil when the file has been fully
// written, or the capture error. Stop halts capture and releases the hardware;
// it is safe to call at any point and more than once.
type Device interface {
	Prepare(path string, format Format) error
	Record(d time.Duration) error
	Done() <-chan error
	Stop()
}

// OpenFunc constructs the capture device. It is only called after input
// validation and permission resolution have succeeded.
type OpenFunc func() (Device, error)
