package player

import (
	"context"
	"log"
	"math"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/Danondso/miccheck/internal/failure"
)

// Beep implements Player in-process on the shared speaker.
type Beep struct {
	volume float64
	logger *log.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewBeep creates an in-process player.
func NewBeep(volume float64, logger *log.Logger) *Beep {
	return &Beep{volume: ClampVolume(volume), logger: logger}
}

// Play decodes the WAV file at path and blocks until it has played out,
// Stop is called, or ctx is cancelled.
func (b *Beep) Play(ctx context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return failure.Wrap(failure.KindPlaybackFailed, "Failed to open audio", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return failure.Wrap(failure.KindPlaybackFailed, "Failed to decode audio", err)
	}
	defer streamer.Close()

	if err := InitSpeaker(); err != nil {
		return failure.Wrap(failure.KindPlaybackFailed, "Failed to open audio output", err)
	}

	b.mu.Lock()
	if b.stop != nil {
		b.mu.Unlock()
		return failure.New(failure.KindPlaybackFailed, "Playback already in progress")
	}
	stop := make(chan struct{})
	b.stop = stop
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.stop = nil
		b.mu.Unlock()
	}()

	vol := &effects.Volume{
		Streamer: Adapt(streamer, format),
		Base:     2,
		Volume:   gain(b.volume),
		Silent:   b.volume == 0,
	}
	done := make(chan struct{})
	b.logf("playback beep: %s rate=%d volume=%.2f", path, format.SampleRate, b.volume)
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-stop:
		speaker.Clear()
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return failure.Wrap(failure.KindPlaybackFailed, "Playback interrupted", ctx.Err())
	}
}

// Stop ends the current playback. It is a no-op when nothing is playing.
func (b *Beep) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		select {
		case <-b.stop:
		default:
			close(b.stop)
		}
	}
	return nil
}

func (b *Beep) logf(format string, v ...any) {
	if b.logger != nil {
		b.logger.Printf(format, v...)
	}
}

// gain maps a linear 0..1 volume to the base-2 exponent effects.Volume expects.
func gain(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(v)
}
