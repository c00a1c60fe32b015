package recorder

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice captures from the default input device. The stream runs at
// the device's native rate and channel count; samples are downmixed as they
// arrive and resampled to the target format when the clip is finalized.
type PortAudioDevice struct {
	mu             sync.Mutex
	stream         *portaudio.Stream
	inputBuf       []int16
	buf            []int16
	file           *os.File
	format         Format
	nativeSR       float64
	nativeChannels int
	channels       int
	logger         *log.Logger

	started  bool
	running  bool
	done     chan error    // receives the capture outcome once
	stop     chan struct{} // closed when the capture loop should exit
	loopDone chan struct{} // closed when the capture loop has exited
	stopOnce sync.Once
}

// NewPortAudioDevice binds to the default input device.
// Call portaudio.Initialize() before using this.
func NewPortAudioDevice(logger *log.Logger) (*PortAudioDevice, error) {
	defIn, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("default input device: %w", err)
	}
	if defIn == nil || defIn.MaxInputChannels < 1 {
		return nil, fmt.Errorf("default input device has no input channels")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &PortAudioDevice{
		nativeSR:       defIn.DefaultSampleRate,
		nativeChannels: defIn.MaxInputChannels,
		logger:         logger,
		done:           make(chan error, 1),
		stop:           make(chan struct{}),
		loopDone:       make(chan struct{}),
	}, nil
}

// Prepare opens the input stream and creates the output file.
func (d *PortAudioDevice) Prepare(path string, format Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if format.Channels != 1 || format.BitDepth != 16 || format.Float || format.BigEndian {
		return fmt.Errorf("unsupported capture format %s", format)
	}

	channels := d.nativeChannels
	if channels > 2 {
		channels = 2
	}

	framesPerBuffer := int(d.nativeSR / 10) // ~100ms chunks
	inputBuf := make([]int16, framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(channels, 0, d.nativeSR, framesPerBuffer, &inputBuf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644) //nolint:gosec // path validated by Request
	if err != nil {
		stream.Close()
		return fmt.Errorf("create output file: %w", err)
	}

	d.stream = stream
	d.inputBuf = inputBuf
	d.channels = channels
	d.file = f
	d.format = format
	d.logger.Printf("recorder prepared: native=%.0fHz/%dch target=%s", d.nativeSR, channels, format)
	return nil
}

// Record starts the stream and captures for exactly dur in the background.
func (d *PortAudioDevice) Record(dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return fmt.Errorf("device not prepared")
	}
	if d.started {
		return fmt.Errorf("already recording")
	}

	target := int(d.nativeSR * dur.Seconds())
	d.buf = make([]int16, 0, target+len(d.inputBuf))

	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	d.started = true
	d.running = true

	go d.captureLoop(target)
	return nil
}

func (d *PortAudioDevice) captureLoop(target int) {
	defer close(d.loopDone)

	for len(d.buf) < target {
		select {
		case <-d.stop:
			return
		default:
		}

		if err := d.stream.Read(); err != nil {
			if !errors.Is(err, portaudio.InputOverflowed) {
				d.done <- fmt.Errorf("read stream: %w", err)
				return
			}
			d.logger.Printf("recorder input overflowed")
		}

		if d.channels == 2 {
			d.buf = append(d.buf, DownmixStereoToMono(d.inputBuf)...)
		} else {
			d.buf = append(d.buf, d.inputBuf...)
		}
	}

	d.done <- d.finalize(d.buf[:target])
}

// finalize stops the stream and writes the captured clip to the output file.
func (d *PortAudioDevice) finalize(samples []int16) error {
	d.stopStream()

	if len(samples) == 0 {
		return fmt.Errorf("no audio captured")
	}

	if int(d.nativeSR) != d.format.SampleRate {
		resampled, err := Resample(samples, d.nativeSR, float64(d.format.SampleRate))
		if err != nil {
			return fmt.Errorf("resample: %w", err)
		}
		samples = resampled
	}

	if err := writeWAV(d.file, samples, d.format.SampleRate); err != nil {
		return err
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("sync output file: %w", err)
	}
	d.logger.Printf("recorder finalized: samples=%d", len(samples))
	return nil
}

// stopStream is only called from the capture loop or after it has exited.
func (d *PortAudioDevice) stopStream() {
	if !d.running {
		return
	}
	d.running = false
	if err := d.stream.Stop(); err != nil {
		d.logger.Printf("recorder stream stop: %v", err)
	}
}

// Done delivers the capture outcome.
func (d *PortAudioDevice) Done() <-chan error {
	return d.done
}

// Stop halts capture and releases the stream and output file.
func (d *PortAudioDevice) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)

		d.mu.Lock()
		started := d.started
		d.mu.Unlock()

		// Wait for the capture loop before closing the stream so stream.Read
		// never races with stream.Close.
		if started {
			<-d.loopDone
			d.stopStream()
		}
		if d.stream != nil {
			d.stream.Close()
		}
		if d.file != nil {
			d.file.Close()
		}
	})
}
