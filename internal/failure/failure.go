// Package failure defines the error kinds shared by the recorder process,
// the orchestrator and playback, and maps them to process exit codes.
package failure

import "errors"

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindPermissionDenied
	KindHardwarePrepareFailed
	KindCaptureStartFailed
	KindCaptureTimeout
	KindCaptureCallbackFailed
	KindFileNotCreated
	KindProcessNonZeroExit
	KindMarkerMissing
	KindPlaybackFileNotFound
	KindPlaybackFailed
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindInvalidArgument:       "invalid_argument",
	KindPermissionDenied:      "permission_denied",
	KindHardwarePrepareFailed: "hardware_prepare_failed",
	KindCaptureStartFailed:    "capture_start_failed",
	KindCaptureTimeout:        "capture_timeout",
	KindCaptureCallbackFailed: "capture_callback_failed",
	KindFileNotCreated:        "file_not_created",
	KindProcessNonZeroExit:    "process_non_zero_exit",
	KindMarkerMissing:         "marker_missing",
	KindPlaybackFileNotFound:  "playback_file_not_found",
	KindPlaybackFailed:        "playback_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Exit codes of the recorder process.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitPermissionDenied = 2
)

// Error is a classified failure with a short user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an Error of the given kind that wraps cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to the recorder process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if KindOf(err) == KindPermissionDenied {
		return ExitPermissionDenied
	}
	return ExitFailure
}
