// Package player plays back recorded clips.
package player

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/Danondso/miccheck/internal/failure"
)

// Player plays an audio file. Play blocks until playback ends; Stop ends
// the current playback early, and Play then returns nil.
type Player interface {
	Play(ctx context.Context, path string) error
	Stop() error
}

// ErrFileNotFound is the message for a missing playback file.
const ErrFileNotFound = "Audio file not found"

// checkFile fails with KindPlaybackFileNotFound when path is not a regular file.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failure.New(failure.KindPlaybackFileNotFound, ErrFileNotFound)
		}
		return failure.Wrap(failure.KindPlaybackFileNotFound, ErrFileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return failure.New(failure.KindPlaybackFileNotFound, ErrFileNotFound)
	}
	return nil
}

// ClampVolume limits v to [0, 1].
func ClampVolume(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// New returns the player selected by kind: "beep" plays in-process,
// anything else shells out to command.
func New(kind, command string, volume float64, logger *log.Logger) Player {
	if kind == "beep" {
		return NewBeep(volume, logger)
	}
	if command == "" {
		command = DefaultCommand
	}
	return NewCommand(command, volume, logger)
}
