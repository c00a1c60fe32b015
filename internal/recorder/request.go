package recorder

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
)

const (
	// MaxDurationSec is the longest clip the recorder will capture.
	MaxDurationSec = 30.0

	// MarkerRecording is written to stdout once capture is confirmed live.
	MarkerRecording = "RECORDING"
	// MarkerOK is written to stdout just before a successful exit.
	MarkerOK = "OK"
	// ErrorTag prefixes the diagnostic line written to stderr on failure.
	ErrorTag = "ERROR:"
	// PermissionDeniedPhrase appears in every permission-related diagnostic.
	PermissionDeniedPhrase = "Microphone access denied"

	// settleDelay compensates for hardware ramp-up after capture starts.
	settleDelay = 150 * time.Millisecond
	// finalizeGrace is added to the clip duration to bound the completion wait.
	finalizeGrace = 2 * time.Second
	// pollInterval is the slice the wait loop yields in.
	pollInterval = 100 * time.Millisecond
)

// Request is a validated recording request.
type Request struct {
	OutputPath string
	Duration   float64
}

// ParseArgs parses "<output-path> <duration-seconds>" and validates the result.
func ParseArgs(args []string) (Request, error) {
	if len(args) < 2 {
		return Request{}, failure.New(failure.KindInvalidArgument, "Usage: mic-recorder <output-path> <duration-seconds>")
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return Request{}, failure.New(failure.KindInvalidArgument, "Duration must be between 0 and 30 seconds")
	}
	req := Request{OutputPath: args[0], Duration: d}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the request without touching the filesystem. Any ".." in
// the path is rejected, whether or not it would escape anywhere.
func (r Request) Validate() error {
	if r.OutputPath == "" || strings.Contains(r.OutputPath, "..") || !filepath.IsAbs(r.OutputPath) {
		return failure.New(failure.KindInvalidArgument, "Invalid output path")
	}
	if math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) || r.Duration <= 0 || r.Duration > MaxDurationSec {
		return failure.New(failure.KindInvalidArgument, "Duration must be between 0 and 30 seconds")
	}
	return nil
}

// ClipDuration returns the requested capture length.
func (r Request) ClipDuration() time.Duration {
	return time.Duration(r.Duration * float64(time.Second))
}

