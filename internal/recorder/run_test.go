package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
)

// fakeDevice mimics a capture device: Prepare creates the output file and the
// completion callback fires after the requested duration.
type fakeDevice struct {
	prepareErr error
	recordErr  error
	outcome    error // delivered on Done
	hang       bool  // never deliver on Done
	skipWrite  bool  // report success without leaving a file

	mu         sync.Mutex
	path       string
	recordedAt time.Time
	stops      int
	done       chan error
}

func (d *fakeDevice) Prepare(path string, format Format) error {
	if d.prepareErr != nil {
		return d.prepareErr
	}
	d.path = path
	d.done = make(chan error, 1)
	return os.WriteFile(path, nil, 0o644)
}

func (d *fakeDevice) Record(dur time.Duration) error {
	if d.recordErr != nil {
		return d.recordErr
	}
	d.mu.Lock()
	d.recordedAt = time.Now()
	d.mu.Unlock()

	go func() {
		time.Sleep(dur)
		if d.hang {
			return
		}
		if d.outcome == nil {
			if d.skipWrite {
				_ = os.Remove(d.path)
			} else {
				wavData, err := EncodeWAV(make([]int16, int(dur.Seconds()*44100)+1), 44100)
				if err == nil {
					err = os.WriteFile(d.path, wavData, 0o644)
				}
				if err != nil {
					d.done <- err
					return
				}
			}
		}
		d.done <- d.outcome
	}()
	return nil
}

func (d *fakeDevice) Done() <-chan error { return d.done }

func (d *fakeDevice) Stop() {
	d.mu.Lock()
	d.stops++
	d.mu.Unlock()
}

type fakePermissions struct {
	status    PermissionState
	grant     bool
	statusHit int
	requested int
}

func (p *fakePermissions) Status() PermissionState {
	p.statusHit++
	return p.status
}

func (p *fakePermissions) Request(context.Context) bool {
	p.requested++
	return p.grant
}

// lineRecorder captures marker lines with the time each was written.
type lineRecorder struct {
	mu    sync.Mutex
	lines []string
	times []time.Time
}

func (w *lineRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.lines = append(w.lines, line)
		w.times = append(w.times, time.Now())
	}
	return len(p), nil
}

func (w *lineRecorder) output() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "\n")
}

type runFixture struct {
	dev    *fakeDevice
	perms  *fakePermissions
	out    *lineRecorder
	opens  int
	runner *Runner
}

func newRunFixture(dev *fakeDevice) *runFixture {
	f := &runFixture{
		dev:   dev,
		perms: &fakePermissions{status: PermissionAuthorized},
		out:   &lineRecorder{},
	}
	f.runner = &Runner{
		Open: func() (Device, error) {
			f.opens++
			return f.dev, nil
		},
		Permissions:  f.perms,
		Stdout:       f.out,
		Settle:       30 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		Grace:        200 * time.Millisecond,
	}
	return f
}

func outputPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "mic-test.wav")
}

func TestRunSuccess(t *testing.T) {
	f := newRunFixture(&fakeDevice{})
	path := outputPath(t)

	err := f.runner.Run(context.Background(), Request{OutputPath: path, Duration: 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.out.output(); got != "RECORDING\nOK" {
		t.Errorf("expected markers RECORDING, OK; got %q", got)
	}
	if err := VerifyWAVFile(path, CaptureFormat); err != nil {
		t.Errorf("expected valid recording: %v", err)
	}
	if f.dev.stops == 0 {
		t.Error("expected device to be stopped")
	}
}

func TestRunMarkerAfterSettle(t *testing.T) {
	f := newRunFixture(&fakeDevice{})
	f.runner.Settle = 80 * time.Millisecond

	if err := f.runner.Run(context.Background(), Request{OutputPath: outputPath(t), Duration: 0.1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.dev.mu.Lock()
	recordedAt := f.dev.recordedAt
	f.dev.mu.Unlock()
	if len(f.out.times) == 0 {
		t.Fatal("expected RECORDING marker")
	}
	if gap := f.out.times[0].Sub(recordedAt); gap < 80*time.Millisecond {
		t.Errorf("RECORDING emitted %s after capture start, want >= 80ms", gap)
	}
}

func TestRunInvalidRequestTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		req  Request
	}{
		{"zero duration", Request{OutputPath: filepath.Join(dir, "a.wav"), Duration: 0}},
		{"negative duration", Request{OutputPath: filepath.Join(dir, "a.wav"), Duration: -1}},
		{"too long", Request{OutputPath: filepath.Join(dir, "a.wav"), Duration: 30.5}},
		{"traversal", Request{OutputPath: dir + "/../a.wav", Duration: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(&fakeDevice{})
			err := f.runner.Run(context.Background(), tt.req)
			if !failure.Is(err, failure.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if failure.ExitCode(err) != failure.ExitFailure {
				t.Errorf("expected exit code 1, got %d", failure.ExitCode(err))
			}
			if f.opens != 0 || f.perms.statusHit != 0 {
				t.Errorf("expected no hardware or permission access, opens=%d status=%d", f.opens, f.perms.statusHit)
			}
			if _, err := os.Stat(tt.req.OutputPath); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected no file at %s", tt.req.OutputPath)
			}
		})
	}
}

func TestRunPermissionDenied(t *testing.T) {
	f := newRunFixture(&fakeDevice{})
	f.perms.status = PermissionDenied
	path := outputPath(t)

	err := f.runner.Run(context.Background(), Request{OutputPath: path, Duration: 1})
	if failure.ExitCode(err) != failure.ExitPermissionDenied {
		t.Fatalf("expected exit code 2, got %d (%v)", failure.ExitCode(err), err)
	}
	if !strings.Contains(err.Error(), PermissionDeniedPhrase) {
		t.Errorf("expected %q in %q", PermissionDeniedPhrase, err.Error())
	}
	if f.opens != 0 {
		t.Error("expected capture not to be attempted")
	}
	if f.out.output() != "" {
		t.Errorf("expected no markers, got %q", f.out.output())
	}
}

func TestRunPermissionRequested(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		f := newRunFixture(&fakeDevice{})
		f.perms.status = PermissionNotDetermined
		f.perms.grant = true
		if err := f.runner.Run(context.Background(), Request{OutputPath: outputPath(t), Duration: 0.1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.perms.requested != 1 {
			t.Errorf("expected one request, got %d", f.perms.requested)
		}
	})

	t.Run("refused", func(t *testing.T) {
		f := newRunFixture(&fakeDevice{})
		f.perms.status = PermissionNotDetermined
		err := f.runner.Run(context.Background(), Request{OutputPath: outputPath(t), Duration: 0.1})
		if failure.ExitCode(err) != failure.ExitPermissionDenied {
			t.Fatalf("expected exit code 2, got %v", err)
		}
		if f.opens != 0 {
			t.Error("expected capture not to be attempted")
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newRunFixture(&fakeDevice{})
		f.perms.status = PermissionState(42)
		err := f.runner.Run(context.Background(), Request{OutputPath: outputPath(t), Duration: 0.1})
		if failure.ExitCode(err) != failure.ExitPermissionDenied {
			t.Fatalf("expected exit code 2, got %v", err)
		}
		if err.Error() != "Unknown permission status" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestRunFailuresRemoveArtifact(t *testing.T) {
	tests := []struct {
		name       string
		dev        *fakeDevice
		wantKind   failure.Kind
		wantMarker bool
	}{
		{"prepare fails", &fakeDevice{prepareErr: errors.New("no input")}, failure.KindHardwarePrepareFailed, false},
		{"start fails", &fakeDevice{recordErr: errors.New("busy")}, failure.KindCaptureStartFailed, false},
		{"timeout", &fakeDevice{hang: true}, failure.KindCaptureTimeout, true},
		{"callback error", &fakeDevice{outcome: errors.New("encode error")}, failure.KindCaptureCallbackFailed, true},
		{"success without file", &fakeDevice{skipWrite: true}, failure.KindFileNotCreated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(tt.dev)
			path := outputPath(t)

			err := f.runner.Run(context.Background(), Request{OutputPath: path, Duration: 0.05})
			if !failure.Is(err, tt.wantKind) {
				t.Fatalf("expected %s, got %v (%s)", tt.wantKind, err, failure.KindOf(err))
			}
			if failure.ExitCode(err) != failure.ExitFailure {
				t.Errorf("expected exit code 1, got %d", failure.ExitCode(err))
			}
			if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
				t.Error("expected partial artifact to be removed")
			}
			out := f.out.output()
			if strings.Contains(out, MarkerOK) {
				t.Errorf("expected no OK marker, got %q", out)
			}
			if got := strings.Contains(out, MarkerRecording); got != tt.wantMarker {
				t.Errorf("RECORDING marker present=%v, want %v", got, tt.wantMarker)
			}
		})
	}
}

func TestRunInterrupted(t *testing.T) {
	f := newRunFixture(&fakeDevice{hang: true})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := f.runner.Run(ctx, Request{OutputPath: outputPath(t), Duration: 5})
	if !failure.Is(err, failure.KindCaptureTimeout) {
		t.Fatalf("expected capture timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("expected interrupted message, got %q", err.Error())
	}
	if time.Since(start) > 2*time.Second {
		t.Error("expected cancellation to end the wait promptly")
	}
}

// failOnOK accepts RECORDING but refuses the completion marker.
type failOnOK struct{ lineRecorder }

func (w *failOnOK) Write(p []byte) (int, error) {
	if strings.Contains(string(p), MarkerOK) {
		return 0, errors.New("broken pipe")
	}
	return w.lineRecorder.Write(p)
}

func TestRunCompletionMarkerFailureRemovesArtifact(t *testing.T) {
	f := newRunFixture(&fakeDevice{})
	f.runner.Stdout = &failOnOK{}
	path := outputPath(t)

	err := f.runner.Run(context.Background(), Request{OutputPath: path, Duration: 0.1})
	if !failure.Is(err, failure.KindFileNotCreated) {
		t.Fatalf("expected file-not-created failure, got %v", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("expected artifact removed when OK cannot be reported")
	}
}
