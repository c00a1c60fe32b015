//go:build linux

package player

// DefaultCommand plays through PulseAudio/PipeWire.
const DefaultCommand = "paplay {input}"
