package recorder

import (
	"context"

	"github.com/Danondso/miccheck/internal/failure"
)

// PermissionState is the OS audio-capture authorization status.
type PermissionState int

const (
	PermissionNotDetermined PermissionState = iota
	PermissionAuthorized
	PermissionDenied
	PermissionUnknown
)

// AVAuthorizationStatus values reported by AVFoundation.
const (
	avNotDetermined = 0
	avRestricted    = 1
	avDenied        = 2
	avAuthorized    = 3
)

// authorizationState maps an AVAuthorizationStatus onto PermissionState.
// Restricted (parental controls, MDM) cannot be changed by the user and
// counts as denied.
func authorizationState(status int) PermissionState {
	switch status {
	case avNotDetermined:
		return PermissionNotDetermined
	case avAuthorized:
		return PermissionAuthorized
	case avDenied, avRestricted:
		return PermissionDenied
	default:
		return PermissionUnknown
	}
}

func (p PermissionState) String() string {
	switch p {
	case PermissionAuthorized:
		return "authorized"
	case PermissionDenied:
		return "denied"
	case PermissionNotDetermined:
		return "not-determined"
	default:
		return "unknown"
	}
}

// Permissions queries and requests microphone access.
type Permissions interface {
	Status() PermissionState
	// Request blocks until the user (or the OS) answers and reports whether
	// access was granted.
	Request(ctx context.Context) bool
}

// ResolvePermission resolves microphone access once. It returns a
// KindPermissionDenied error when capture must not be attempted.
func ResolvePermission(ctx context.Context, p Permissions) error {
	switch p.Status() {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		if p.Request(ctx) {
			return nil
		}
		return failure.New(failure.KindPermissionDenied, PermissionDeniedPhrase)
	case PermissionDenied:
		return failure.New(failure.KindPermissionDenied, PermissionDeniedPhrase+". "+permissionHint)
	default:
		return failure.New(failure.KindPermissionDenied, "Unknown permission status")
	}
}
