package device

import "testing"

const pactlSources = `Source #52
	State: SUSPENDED
	Name: alsa_output.pci-0000_00_1f.3.analog-stereo.monitor
	Description: Monitor of Built-in Audio Analog Stereo
	Driver: PipeWire

Source #53
	State: RUNNING
	Name: alsa_input.usb-Blue_Yeti-00.analog-stereo
	Description: Yeti Stereo Microphone Analog Stereo
	Driver: PipeWire
`

func TestParsePactlDescription(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"input source", "alsa_input.usb-Blue_Yeti-00.analog-stereo", "Yeti Stereo Microphone Analog Stereo"},
		{"monitor source", "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor", ""},
		{"unknown source", "alsa_input.missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePactlDescription(pactlSources, tt.source); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

const profilerCurrent = `Audio:

    Devices:

        MacBook Pro Speakers:

          Default Output Device: Yes
          Output Channels: 2

        MacBook Pro Microphone:

          Default Input Device: Yes
          Input Channels: 1
          Manufacturer: Apple Inc.
`

const profilerLegacy = `Audio:

    Intel High Definition Audio:

      Input:

          Device: Internal Microphone
          Default: USB Headset
`

func TestParseSystemProfiler(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"current layout", profilerCurrent, "MacBook Pro Microphone"},
		{"legacy default", profilerLegacy, "USB Headset"},
		{"legacy device only", "Input:\n  Device: Internal Microphone\n", "Internal Microphone"},
		{"legacy unknown", "Input:\n  Default: Unknown\n", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSystemProfiler(tt.out); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
