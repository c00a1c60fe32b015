//go:build linux

package recorder

import (
	"context"
	"path/filepath"
	"syscall"
)

const permissionHint = "Add your user to the audio group or allow microphone access in your desktop privacy settings"

// accessRW mirrors R_OK|W_OK for access(2).
const accessRW = 0x4 | 0x2

// SystemPermissions reports capture access on Linux. There is no prompt:
// access is denied when ALSA capture nodes exist but none can be opened
// by this user. Sound servers (PulseAudio, PipeWire) without exposed nodes
// are treated as authorized.
type SystemPermissions struct {
	// Glob matches ALSA capture device nodes. Empty means the default.
	Glob string
}

func (p SystemPermissions) Status() PermissionState {
	pattern := p.Glob
	if pattern == "" {
		pattern = "/dev/snd/pcmC*D*c"
	}
	nodes, err := filepath.Glob(pattern)
	if err != nil || len(nodes) == 0 {
		return PermissionAuthorized
	}
	for _, node := range nodes {
		if syscall.Access(node, accessRW) == nil {
			return PermissionAuthorized
		}
	}
	return PermissionDenied
}

// Request has nothing to prompt for on Linux and simply re-reads the status.
func (p SystemPermissions) Request(_ context.Context) bool {
	return p.Status() == PermissionAuthorized
}
