//go:build linux

package device

import (
	"context"
	"os"
	"strings"
	"syscall"

	"github.com/gordonklaus/portaudio"
)

// Init suppresses ALSA/JACK noise during PortAudio initialization by
// temporarily redirecting stderr to /dev/null, then calls portaudio.Initialize().
func Init() error {
	stderrFd := int(os.Stderr.Fd()) //nolint:gosec // fd fits in int on all supported platforms
	savedStderr, err := syscall.Dup(stderrFd)
	if err != nil {
		return portaudio.Initialize()
	}
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		_ = syscall.Close(savedStderr)
		return portaudio.Initialize()
	}
	_ = syscall.Dup2(int(devNull.Fd()), stderrFd)
	_ = devNull.Close()

	initErr := portaudio.Initialize()

	_ = syscall.Dup2(savedStderr, stderrFd)
	_ = syscall.Close(savedStderr)

	return initErr
}

// Terminate releases PortAudio.
func Terminate() error {
	return portaudio.Terminate()
}

// systemName asks PulseAudio/PipeWire for the default source description.
func systemName(ctx context.Context) string {
	source := strings.TrimSpace(output(ctx, "pactl", "get-default-source"))
	if source == "" {
		return ""
	}
	return parsePactlDescription(output(ctx, "pactl", "list", "sources"), source)
}
