// Package device reports on the default audio input device.
package device

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
)

// UnknownName is reported when no lookup yields a device name.
const UnknownName = "Unknown Device"

// lookupTimeout bounds each external command used for name lookup.
const lookupTimeout = 3 * time.Second

// Info describes the default input device. Init must have been called
// for SampleRate and Channels to be populated.
type Info struct {
	Name       string
	Available  bool
	SampleRate float64
	Channels   int
}

// Name returns a human-readable name for the default input device. It
// asks the platform sound system first, falls back to the PortAudio name,
// and finally to UnknownName. It never fails.
func Name(ctx context.Context) string {
	if name := systemName(ctx); name != "" {
		return name
	}
	if name := portaudioName(); name != "" {
		return name
	}
	return UnknownName
}

// Describe gathers everything known about the default input device.
func Describe(ctx context.Context) Info {
	info := Info{Name: Name(ctx)}
	dev, err := portaudio.DefaultInputDevice()
	if err == nil && dev != nil {
		info.Available = dev.MaxInputChannels > 0
		info.SampleRate = dev.DefaultSampleRate
		info.Channels = dev.MaxInputChannels
	}
	return info
}

func portaudioName() string {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil {
		return ""
	}
	return strings.TrimSpace(dev.Name)
}

// output runs a lookup command and returns its stdout, or "" on any failure.
func output(ctx context.Context, name string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return string(out)
}
