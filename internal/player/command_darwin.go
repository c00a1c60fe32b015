//go:build darwin

package player

// DefaultCommand plays through afplay, which takes a 0..1 volume.
const DefaultCommand = "afplay -v {volume} {input}"
