package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is the rate the shared speaker runs at. Streams at other
// rates are resampled before playing.
const SampleRate beep.SampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
)

// InitSpeaker initializes the process-wide speaker once and reports the
// result of that first attempt on every call.
func InitSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// Adapt resamples s from its native format to the speaker rate.
func Adapt(s beep.Streamer, format beep.Format) beep.Streamer {
	if format.SampleRate == SampleRate {
		return s
	}
	return beep.Resample(4, format.SampleRate, SampleRate, s)
}
