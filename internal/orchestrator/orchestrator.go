// Package orchestrator drives the mic-recorder process on behalf of the
// host and owns the single recording artifact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
	"github.com/Danondso/miccheck/internal/player"
	"github.com/Danondso/miccheck/internal/recorder"
)

const (
	// RecorderBinary is the recorder executable name.
	RecorderBinary = "mic-recorder"
	// ArtifactName is the file name of the single recording.
	ArtifactName = "mic-test.wav"

	// PermissionGuidance replaces the recorder's message on permission failures.
	PermissionGuidance = "Microphone access denied. Please enable in System Settings > Privacy & Security > Microphone"

	// DebugEnv enables recorder diagnostics on its stderr.
	DebugEnv = "MIC_RECORDER_DEBUG"

	defaultKillSlack      = 10 * time.Second
	defaultInterruptGrace = 2 * time.Second
)

// Orchestrator launches the recorder, tracks its markers and resolves each
// attempt with the artifact path or a *failure.Error.
type Orchestrator struct {
	BinaryPath string
	OutputPath string
	Duration   float64 // default clip length in seconds
	Logger     *log.Logger
	Debug      bool

	Player     player.Player
	DeviceName func(ctx context.Context) string

	// Zero values select the defaults (10s, 2s).
	KillSlack      time.Duration
	InterruptGrace time.Duration

	mu sync.Mutex
}

// InputDevice returns the name of the default input device.
func (o *Orchestrator) InputDevice(ctx context.Context) string {
	if o.DeviceName == nil {
		return "Unknown Device"
	}
	return o.DeviceName(ctx)
}

// DefaultDuration returns the configured clip length in seconds.
func (o *Orchestrator) DefaultDuration() float64 {
	if o.Duration <= 0 {
		return 5
	}
	return o.Duration
}

// RecordingPath returns the artifact location.
func (o *Orchestrator) RecordingPath() string {
	return o.OutputPath
}

// HasRecording reports whether an artifact exists.
func (o *Orchestrator) HasRecording() bool {
	info, err := os.Stat(o.OutputPath)
	return err == nil && info.Mode().IsRegular()
}

// DeleteRecording removes the artifact. A missing artifact is not an error.
func (o *Orchestrator) DeleteRecording() error {
	if err := os.Remove(o.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete recording: %w", err)
	}
	return nil
}

// Play plays the artifact through the configured player.
func (o *Orchestrator) Play(ctx context.Context) error {
	if o.Player == nil {
		return failure.New(failure.KindPlaybackFailed, "No player configured")
	}
	return o.Player.Play(ctx, o.OutputPath)
}

// Stop ends playback. No active playback is not an error.
func (o *Orchestrator) Stop() error {
	if o.Player == nil {
		return nil
	}
	return o.Player.Stop()
}

// Record captures a clip of duration seconds. onStarted, when non-nil, is
// called once as soon as the recorder reports that capture is live. On
// success the artifact path is returned; on any failure no artifact
// remains. An invalid duration or output path fails before anything on
// disk is touched.
func (o *Orchestrator) Record(ctx context.Context, duration float64, onStarted func()) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	logger := o.logger()
	req := recorder.Request{OutputPath: o.OutputPath, Duration: duration}
	if err := req.Validate(); err != nil {
		logger.Printf("record rejected: %v", err)
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(o.OutputPath), 0o755); err != nil {
		return "", failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to prepare recording directory", err)
	}
	if err := o.DeleteRecording(); err != nil {
		return "", failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to remove previous recording", err)
	}

	res, err := o.run(ctx, duration, onStarted, logger)
	if err != nil {
		o.cleanup(logger)
		return "", err
	}
	if err := o.classify(res); err != nil {
		logger.Printf("record failed: %v (exit=%d stdout=%q)", err, res.exitCode, res.stdout)
		o.cleanup(logger)
		return "", err
	}
	logger.Printf("record completed: %s in %s", o.OutputPath, res.elapsed.Round(time.Millisecond))
	return o.OutputPath, nil
}

// result is what one recorder run left behind.
type result struct {
	stdout      string
	stderr      string
	exitCode    int
	timedOut    bool
	interrupted bool
	elapsed     time.Duration
}

func (o *Orchestrator) run(ctx context.Context, duration float64, onStarted func(), logger *log.Logger) (result, error) {
	clip := time.Duration(duration * float64(time.Second))
	ctx, cancel := context.WithTimeout(ctx, clip+orDefault(o.KillSlack, defaultKillSlack))
	defer cancel()

	arg := strconv.FormatFloat(duration, 'f', -1, 64)
	cmd := exec.CommandContext(ctx, o.BinaryPath, o.OutputPath, arg) //nolint:gosec // binary path from config or install dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = orDefault(o.InterruptGrace, defaultInterruptGrace)
	if o.Debug {
		cmd.Env = append(os.Environ(), DebugEnv+"=1")
	}

	var start time.Time
	watcher := newMarkerWatcher(onStarted, func() {
		logger.Printf("record capture live after %s", time.Since(start).Round(time.Millisecond))
	})
	cmd.Stdout = watcher
	stderr := &stderrSink{logger: logger, debug: o.Debug}
	cmd.Stderr = stderr

	logger.Printf("record start: %s %s %s", o.BinaryPath, o.OutputPath, arg)
	start = time.Now()
	if err := cmd.Start(); err != nil {
		return result{}, failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to start recorder", err)
	}
	waitErr := cmd.Wait()

	res := result{
		stdout:      watcher.output(),
		stderr:      stderr.String(),
		exitCode:    exitCode(cmd.ProcessState, waitErr),
		timedOut:    errors.Is(ctx.Err(), context.DeadlineExceeded),
		interrupted: errors.Is(ctx.Err(), context.Canceled),
		elapsed:     time.Since(start),
	}
	if waitErr != nil {
		logger.Printf("record wait: %v", waitErr)
	}
	return res, nil
}

// classify turns a finished run into nil or the failure it represents.
func (o *Orchestrator) classify(res result) error {
	msg := errorMessage(res.stderr)
	if res.exitCode == failure.ExitPermissionDenied || strings.Contains(res.stderr, recorder.PermissionDeniedPhrase) {
		return failure.New(failure.KindPermissionDenied, PermissionGuidance)
	}
	// A recorder that finished right at the deadline still succeeded.
	if res.exitCode == 0 && hasLine(res.stdout, recorder.MarkerOK) && o.HasRecording() {
		return nil
	}
	if res.timedOut {
		return failure.New(failure.KindCaptureTimeout, "Recording timed out")
	}
	if res.interrupted {
		return failure.New(failure.KindCaptureTimeout, "Recording interrupted")
	}
	if res.exitCode != 0 {
		if msg == "" {
			msg = "Recording failed"
		}
		return failure.New(failure.KindProcessNonZeroExit, msg)
	}
	if !hasLine(res.stdout, recorder.MarkerOK) {
		return failure.New(failure.KindMarkerMissing, "Recording did not complete")
	}
	if !o.HasRecording() {
		return failure.New(failure.KindFileNotCreated, "Recording file was not created")
	}
	return nil
}

func (o *Orchestrator) cleanup(logger *log.Logger) {
	if err := o.DeleteRecording(); err != nil {
		logger.Printf("record cleanup: %v", err)
	}
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard, "", 0)
}

// exitCode extracts the process status; -1 means the process was killed
// by a signal or its status is unknown.
func exitCode(state *os.ProcessState, err error) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	return -1
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
