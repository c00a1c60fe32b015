package orchestrator

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
)

// fakeRecorder writes an executable shell script standing in for
// mic-recorder and returns an Orchestrator wired to it.
func fakeRecorder(t *testing.T, body string) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, RecorderBinary)
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &Orchestrator{
		BinaryPath:     bin,
		OutputPath:     filepath.Join(dir, "data", ArtifactName),
		Duration:       0.1,
		KillSlack:      2 * time.Second,
		InterruptGrace: 500 * time.Millisecond,
	}
}

const recordOK = `echo RECORDING
printf 'RIFF' > "$1"
echo OK`

func counter() (func(), *int32) {
	var n int32
	return func() { atomic.AddInt32(&n, 1) }, &n
}

func TestRecordSuccess(t *testing.T) {
	o := fakeRecorder(t, recordOK)
	onStarted, calls := counter()

	path, err := o.Record(context.Background(), o.DefaultDuration(), onStarted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != o.OutputPath {
		t.Errorf("expected %s, got %s", o.OutputPath, path)
	}
	if !o.HasRecording() {
		t.Error("expected artifact on disk")
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("expected onStarted once, got %d", *calls)
	}
}

func TestRecordPassesArguments(t *testing.T) {
	o := fakeRecorder(t, `printf '%s' "$2" > "$1"
echo OK`)

	if _, err := o.Record(context.Background(), 0.5, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(o.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "0.5" {
		t.Errorf("expected duration argument 0.5, got %q", got)
	}
}

func TestRecordForwardsDebug(t *testing.T) {
	o := fakeRecorder(t, `[ "$MIC_RECORDER_DEBUG" = 1 ] || exit 4
echo "[RECORDER] capturing" >&2
`+recordOK)
	o.Debug = true

	if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err != nil {
		t.Fatalf("expected debug variable to reach recorder: %v", err)
	}
}

func TestRecordOnStartedOnce(t *testing.T) {
	o := fakeRecorder(t, `printf 'RECO'
sleep 0.05
printf 'RDING\nRECORDING\n'
echo RECORDING
printf 'RIFF' > "$1"
echo OK`)
	onStarted, calls := counter()

	if _, err := o.Record(context.Background(), o.DefaultDuration(), onStarted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("expected onStarted exactly once for split and repeated markers, got %d", *calls)
	}
}

func TestRecordFailures(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantKind    failure.Kind
		wantMessage string
		wantStarted int32
	}{
		{
			name:        "permission exit code",
			script:      "echo 'ERROR: Microphone access denied' >&2\nexit 2",
			wantKind:    failure.KindPermissionDenied,
			wantMessage: PermissionGuidance,
		},
		{
			name:        "permission phrase",
			script:      "echo 'ERROR: Microphone access denied. Enable it' >&2\nexit 1",
			wantKind:    failure.KindPermissionDenied,
			wantMessage: PermissionGuidance,
		},
		{
			name:        "recorder error",
			script:      "echo RECORDING\nprintf 'RIFF' > \"$1\"\necho 'ERROR: Recording timed out' >&2\nexit 1",
			wantKind:    failure.KindProcessNonZeroExit,
			wantMessage: "Recording timed out",
			wantStarted: 1,
		},
		{
			name:        "silent nonzero exit",
			script:      "exit 1",
			wantKind:    failure.KindProcessNonZeroExit,
			wantMessage: "Recording failed",
		},
		{
			name:        "missing OK",
			script:      "echo RECORDING\nprintf 'RIFF' > \"$1\"",
			wantKind:    failure.KindMarkerMissing,
			wantStarted: 1,
		},
		{
			name:        "OK without file",
			script:      "echo RECORDING\necho OK",
			wantKind:    failure.KindFileNotCreated,
			wantStarted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := fakeRecorder(t, tt.script)
			onStarted, calls := counter()

			path, err := o.Record(context.Background(), o.DefaultDuration(), onStarted)
			if !failure.Is(err, tt.wantKind) {
				t.Fatalf("expected %s, got %v (%s)", tt.wantKind, err, failure.KindOf(err))
			}
			if path != "" {
				t.Errorf("expected no path, got %q", path)
			}
			if tt.wantMessage != "" && err.Error() != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, err.Error())
			}
			if got := atomic.LoadInt32(calls); got != tt.wantStarted {
				t.Errorf("expected onStarted %d times, got %d", tt.wantStarted, got)
			}
			if o.HasRecording() {
				t.Error("expected artifact to be deleted")
			}
		})
	}
}

func TestRecordTimeout(t *testing.T) {
	o := fakeRecorder(t, "echo RECORDING\nexec sleep 30")
	o.KillSlack = 200 * time.Millisecond

	start := time.Now()
	_, err := o.Record(context.Background(), 0.1, nil)
	if !failure.Is(err, failure.KindCaptureTimeout) {
		t.Fatalf("expected capture timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected recorder to be stopped promptly, took %s", elapsed)
	}
}

func TestRecordTimeoutIgnoringInterrupt(t *testing.T) {
	o := fakeRecorder(t, "trap '' INT\necho RECORDING\nexec sleep 30")
	o.KillSlack = 200 * time.Millisecond
	o.InterruptGrace = 200 * time.Millisecond

	start := time.Now()
	_, err := o.Record(context.Background(), 0.1, nil)
	if !failure.Is(err, failure.KindCaptureTimeout) {
		t.Fatalf("expected capture timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected recorder to be killed after the grace period, took %s", elapsed)
	}
}

func TestRecordCancelled(t *testing.T) {
	o := fakeRecorder(t, "echo RECORDING\nexec sleep 30")
	ctx, cancel := context.WithCancel(context.Background())
	onStarted := func() { cancel() }

	_, err := o.Record(ctx, 5, onStarted)
	if !failure.Is(err, failure.KindCaptureTimeout) {
		t.Fatalf("expected interrupted recording, got %v", err)
	}
	if !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("expected interrupted message, got %q", err.Error())
	}
}

func TestRecordDeletesPreviousArtifact(t *testing.T) {
	o := fakeRecorder(t, `[ -e "$1" ] && exit 3
`+recordOK)

	for i := 0; i < 2; i++ {
		if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err != nil {
			t.Fatalf("attempt %d: expected prior artifact to be removed before launch: %v", i+1, err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(o.OutputPath))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one artifact, found %d", len(entries))
	}
}

func TestRecordFailureRemovesEarlierSuccess(t *testing.T) {
	o := fakeRecorder(t, recordOK)
	if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failing := fakeRecorder(t, "exit 1")
	o.BinaryPath = failing.BinaryPath
	if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err == nil {
		t.Fatal("expected failure")
	}
	if o.HasRecording() {
		t.Error("expected no artifact after a failed attempt")
	}
}

func TestRecordMissingBinary(t *testing.T) {
	o := fakeRecorder(t, "")
	o.BinaryPath = filepath.Join(t.TempDir(), "nope")

	_, err := o.Record(context.Background(), o.DefaultDuration(), nil)
	if !failure.Is(err, failure.KindHardwarePrepareFailed) {
		t.Errorf("expected launch failure, got %v", err)
	}
}

func TestDeleteRecording(t *testing.T) {
	o := fakeRecorder(t, recordOK)
	if err := o.DeleteRecording(); err != nil {
		t.Errorf("expected nil for missing artifact, got %v", err)
	}
	if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err != nil {
		t.Fatal(err)
	}
	if err := o.DeleteRecording(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(o.OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected artifact removed")
	}
}

type fakePlayer struct {
	played []string
	stops  int
}

func (p *fakePlayer) Play(_ context.Context, path string) error {
	p.played = append(p.played, path)
	return nil
}

func (p *fakePlayer) Stop() error {
	p.stops++
	return nil
}

func TestPlaybackDelegates(t *testing.T) {
	o := fakeRecorder(t, recordOK)
	if err := o.Stop(); err != nil {
		t.Errorf("expected stop without player to succeed, got %v", err)
	}
	if err := o.Play(context.Background()); !failure.Is(err, failure.KindPlaybackFailed) {
		t.Errorf("expected error without player, got %v", err)
	}

	fp := &fakePlayer{}
	o.Player = fp
	if err := o.Play(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = o.Stop()
	if len(fp.played) != 1 || fp.played[0] != o.OutputPath || fp.stops != 1 {
		t.Errorf("unexpected player calls: %+v", fp)
	}
}

func TestHostAccessors(t *testing.T) {
	o := &Orchestrator{OutputPath: "/tmp/x/" + ArtifactName}
	if o.DefaultDuration() != 5 {
		t.Errorf("expected default 5s, got %v", o.DefaultDuration())
	}
	if o.InputDevice(context.Background()) != "Unknown Device" {
		t.Error("expected unknown device without a lookup")
	}
	o.DeviceName = func(context.Context) string { return "Yeti" }
	if o.InputDevice(context.Background()) != "Yeti" {
		t.Error("expected lookup result")
	}
	if o.RecordingPath() != o.OutputPath {
		t.Error("expected recording path")
	}
	if ArtifactPath("/data") != "/data/mic-test.wav" {
		t.Errorf("unexpected artifact path %s", ArtifactPath("/data"))
	}
}

func TestRecordRejectsInvalidRequest(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		output   string
	}{
		{"zero duration", 0, ""},
		{"negative duration", -3, ""},
		{"too long", 30.5, ""},
		{"not a number", math.NaN(), ""},
		{"relative output", 1, "data/" + ArtifactName},
		{"dotdot output", 1, "/tmp/../" + ArtifactName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := fakeRecorder(t, `touch "$(dirname "$0")/ran"`+"\n"+recordOK)
			if tt.output != "" {
				o.OutputPath = tt.output
			}
			onStarted, calls := counter()

			path, err := o.Record(context.Background(), tt.duration, onStarted)
			if !failure.Is(err, failure.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v (%s)", err, failure.KindOf(err))
			}
			if path != "" || atomic.LoadInt32(calls) != 0 {
				t.Errorf("expected no path and no start, got %q and %d", path, *calls)
			}
			if _, err := os.Stat(filepath.Join(filepath.Dir(o.BinaryPath), "ran")); err == nil {
				t.Error("expected recorder not to be launched")
			}
		})
	}
}

func TestRecordInvalidDurationKeepsPreviousArtifact(t *testing.T) {
	o := fakeRecorder(t, recordOK)
	if _, err := o.Record(context.Background(), o.DefaultDuration(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Record(context.Background(), -1, nil); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if !o.HasRecording() {
		t.Error("expected earlier recording to survive a rejected request")
	}
}

func TestClassifyFinishedAtDeadline(t *testing.T) {
	o := fakeRecorder(t, "")
	if err := os.MkdirAll(filepath.Dir(o.OutputPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(o.OutputPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	finished := result{stdout: "RECORDING\nOK\n", exitCode: 0, timedOut: true}
	if err := o.classify(finished); err != nil {
		t.Errorf("expected a clean exit at the deadline to succeed, got %v", err)
	}

	killed := result{stdout: "RECORDING\n", exitCode: -1, timedOut: true}
	if err := o.classify(killed); !failure.Is(err, failure.KindCaptureTimeout) {
		t.Errorf("expected timeout for a killed recorder, got %v", err)
	}

	noMarker := result{stdout: "RECORDING\n", exitCode: 0, timedOut: true}
	if err := o.classify(noMarker); !failure.Is(err, failure.KindCaptureTimeout) {
		t.Errorf("expected timeout without OK, got %v", err)
	}
}
