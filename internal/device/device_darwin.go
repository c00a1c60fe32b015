//go:build darwin

package device

import (
	"context"

	"github.com/gordonklaus/portaudio"
)

// Init initializes PortAudio. CoreAudio is quiet on stderr, so nothing
// needs suppressing.
func Init() error {
	return portaudio.Initialize()
}

// Terminate releases PortAudio.
func Terminate() error {
	return portaudio.Terminate()
}

func systemName(ctx context.Context) string {
	return parseSystemProfiler(output(ctx, "system_profiler", "SPAudioDataType"))
}
