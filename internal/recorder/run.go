package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
)

// Runner executes one recording: permission, pre-warm, capture, bounded wait,
// verification. Markers go to Stdout; a failed run leaves no file behind.
type Runner struct {
	Open        OpenFunc
	Permissions Permissions
	Stdout      io.Writer
	Logger      *log.Logger

	// Zero values select the defaults (150ms, 100ms, 2s).
	Settle       time.Duration
	PollInterval time.Duration
	Grace        time.Duration
}

// Run records req. The returned error is a *failure.Error; use
// failure.ExitCode to turn it into the process status.
func (r *Runner) Run(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	logger := r.logger()

	if err := ResolvePermission(ctx, r.Permissions); err != nil {
		logger.Printf("recorder permission: %v", err)
		return err
	}

	var session Session
	if err := r.capture(ctx, req, &session, logger); err != nil {
		session.Fail(err)
	} else if err := r.emit(MarkerOK); err != nil {
		session.Fail(failure.Wrap(failure.KindFileNotCreated, "Failed to report completion", err))
	}

	if err := session.Err(); err != nil {
		logger.Printf("recorder failed: ready=%v started=%v finished=%v: %v",
			session.HardwareReady(), session.CaptureStarted(), session.CaptureFinished(), err)
		removeArtifact(req.OutputPath, logger)
		return err
	}
	return nil
}

func (r *Runner) capture(ctx context.Context, req Request, session *Session, logger *log.Logger) error {
	if r.Open == nil {
		return failure.New(failure.KindHardwarePrepareFailed, "Failed to prepare recording")
	}
	dev, err := r.Open()
	if err != nil {
		return failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to prepare recording", err)
	}
	defer dev.Stop()

	if err := dev.Prepare(req.OutputPath, CaptureFormat); err != nil {
		return failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to prepare recording", err)
	}
	if err := session.MarkHardwareReady(); err != nil {
		return failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to prepare recording", err)
	}

	if err := dev.Record(req.ClipDuration()); err != nil {
		return failure.Wrap(failure.KindCaptureStartFailed, "Failed to start recording", err)
	}
	startedAt := time.Now()

	time.Sleep(orDefault(r.Settle, settleDelay))

	if err := session.MarkCaptureStarted(); err != nil {
		return failure.Wrap(failure.KindCaptureStartFailed, "Failed to start recording", err)
	}
	if err := r.emit(MarkerRecording); err != nil {
		return failure.Wrap(failure.KindCaptureStartFailed, "Failed to signal recording start", err)
	}
	logger.Printf("recorder capturing: duration=%s path=%s", req.ClipDuration(), req.OutputPath)

	deadline := time.Now().Add(req.ClipDuration() + orDefault(r.Grace, finalizeGrace))
	finished, result := r.wait(ctx, dev, deadline)
	dev.Stop()

	switch {
	case !finished && ctx.Err() != nil:
		return failure.Wrap(failure.KindCaptureTimeout, "Recording interrupted", ctx.Err())
	case !finished:
		return failure.New(failure.KindCaptureTimeout, "Recording timed out")
	case result != nil:
		return failure.Wrap(failure.KindCaptureCallbackFailed, "Recording did not complete successfully", result)
	}
	if err := session.MarkCaptureFinished(); err != nil {
		return failure.Wrap(failure.KindCaptureCallbackFailed, "Recording did not complete successfully", err)
	}

	if err := VerifyWAVFile(req.OutputPath, CaptureFormat); err != nil {
		logger.Printf("recorder verify: %v", err)
		return failure.Wrap(failure.KindFileNotCreated, "Recording file was not created", err)
	}
	logger.Printf("recorder completed in %s", time.Since(startedAt).Round(time.Millisecond))
	return nil
}

// wait services the device's completion channel in short slices until it
// fires, the deadline passes, or ctx is cancelled.
func (r *Runner) wait(ctx context.Context, dev Device, deadline time.Time) (bool, error) {
	slice := orDefault(r.PollInterval, pollInterval)
	for time.Now().Before(deadline) {
		timer := time.NewTimer(slice)
		select {
		case err := <-dev.Done():
			timer.Stop()
			return true, err
		case <-ctx.Done():
			timer.Stop()
			return false, nil
		case <-timer.C:
		}
	}
	return false, nil
}

type flusher interface{ Flush() error }

type syncer interface{ Sync() error }

// emit writes a marker line and pushes it out immediately.
func (r *Runner) emit(marker string) error {
	w := r.Stdout
	if w == nil {
		w = os.Stdout
	}
	if _, err := fmt.Fprintln(w, marker); err != nil {
		return err
	}
	switch f := w.(type) {
	case flusher:
		return f.Flush()
	case syncer:
		// Sync on a pipe or terminal reports EINVAL; the write already landed.
		_ = f.Sync()
	}
	return nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(io.Discard, "", 0)
}

func removeArtifact(path string, logger *log.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("recorder cleanup: %v", err)
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
