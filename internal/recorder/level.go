package recorder

import (
	"fmt"
	"math"
	"os"
	"time"
)

// silenceFloorDBFS is the peak level below which a clip is reported as silent.
const silenceFloorDBFS = -60.0

// Level summarizes the loudness of a recorded clip.
type Level struct {
	Peak     float64 // max |sample|, 0.0–1.0
	RMS      float64 // 0.0–1.0
	Duration time.Duration
}

// PeakDBFS returns the peak level in dB relative to full scale.
func (l Level) PeakDBFS() float64 { return toDBFS(l.Peak) }

// RMSDBFS returns the RMS level in dB relative to full scale.
func (l Level) RMSDBFS() float64 { return toDBFS(l.RMS) }

// Silent reports whether the clip never rose above the noise floor,
// which usually means a muted or disconnected input.
func (l Level) Silent() bool { return l.PeakDBFS() < silenceFloorDBFS }

func toDBFS(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// Analyze decodes the WAV file at path and measures its level.
func Analyze(path string) (Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Level{}, fmt.Errorf("read recording: %w", err)
	}
	samples, sampleRate, err := DecodeWAV(data)
	if err != nil {
		return Level{}, err
	}
	return measure(samples, sampleRate), nil
}

func measure(samples []int16, sampleRate int) Level {
	lvl := Level{RMS: computeRMS(samples)}
	for _, s := range samples {
		v := math.Abs(float64(s)) / 32768.0
		if v > lvl.Peak {
			lvl.Peak = v
		}
	}
	if sampleRate > 0 {
		lvl.Duration = time.Duration(float64(len(samples)) / float64(sampleRate) * float64(time.Second))
	}
	return lvl
}

// computeRMS computes the root-mean-square of mono int16 samples normalized to [0.0, 1.0].
func computeRMS(buf []int16) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}
