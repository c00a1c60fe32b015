// Package chime plays short result tones after a recording attempt.
package chime

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/Danondso/miccheck/internal/player"
	"github.com/Danondso/miccheck/internal/recorder"
)

const (
	toneRate     = 44100
	toneDuration = 0.15 // seconds
)

// Player manages chime playback. Chimes are only played once capture has
// ended so they never bleed into a recording.
type Player struct {
	successData []byte
	failureData []byte
	enabled     bool
	logger      *log.Logger
}

// New creates a Player. If successPath/failurePath are empty, generated
// tones are used: rising for success, falling for failure.
// If enabled is false, PlaySuccess/PlayFailure are no-ops.
func New(successPath, failurePath string, enabled bool, logger *log.Logger) (*Player, error) {
	p := &Player{
		enabled: enabled,
		logger:  logger,
	}

	var err error
	if p.successData, err = load(successPath, 440, 660); err != nil {
		return nil, fmt.Errorf("success chime: %w", err)
	}
	if p.failureData, err = load(failurePath, 330, 220); err != nil {
		return nil, fmt.Errorf("failure chime: %w", err)
	}
	return p, nil
}

func load(path string, startFreq, endFreq float64) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}
	return recorder.EncodeWAV(generateTone(toneRate, toneDuration, startFreq, endFreq), toneRate)
}

// generateTone renders a sine sweep from startFreq to endFreq with a
// half-sine envelope so it starts and ends at silence.
func generateTone(sampleRate int, duration, startFreq, endFreq float64) []int16 {
	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		progress := float64(i) / float64(numSamples)
		freq := startFreq + (endFreq-startFreq)*progress
		envelope := math.Sin(math.Pi * progress)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * envelope * 16000)
	}
	return samples
}

// play decodes data and plays it on the shared speaker in the background.
// The returned channel closes when the chime is done or was skipped.
func (p *Player) play(name string, data []byte) <-chan struct{} {
	done := make(chan struct{})
	if !p.enabled || len(data) == 0 {
		close(done)
		return done
	}

	go func() {
		streamer, format, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			p.logf("chime %s: wav decode error: %v", name, err)
			close(done)
			return
		}
		defer streamer.Close()

		if err := player.InitSpeaker(); err != nil {
			p.logf("chime %s: speaker init error: %v", name, err)
			close(done)
			return
		}

		speaker.Play(beep.Seq(player.Adapt(streamer, format), beep.Callback(func() {
			close(done)
		})))
		<-done
	}()
	return done
}

func (p *Player) logf(format string, v ...any) {
	if p.logger != nil {
		p.logger.Printf(format, v...)
	}
}

// PlaySuccess plays the success chime (non-blocking).
func (p *Player) PlaySuccess() <-chan struct{} {
	return p.play("success", p.successData)
}

// PlayFailure plays the failure chime (non-blocking).
func (p *Player) PlayFailure() <-chan struct{} {
	return p.play("failure", p.failureData)
}
