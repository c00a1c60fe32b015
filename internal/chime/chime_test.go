package chime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Danondso/miccheck/internal/recorder"
)

func TestNewWithDefaults(t *testing.T) {
	p, err := New("", "", true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.successData) <= 44 {
		t.Error("expected generated success tone")
	}
	if len(p.failureData) <= 44 {
		t.Error("expected generated failure tone")
	}
	if !p.enabled {
		t.Error("expected enabled")
	}
}

func TestNewDisabled(t *testing.T) {
	p, err := New("", "", false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Disabled chimes complete immediately without touching the speaker.
	<-p.PlaySuccess()
	<-p.PlayFailure()
}

func TestNewWithCustomPaths(t *testing.T) {
	dir := t.TempDir()
	successPath := filepath.Join(dir, "ok.wav")
	failurePath := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(successPath, []byte("custom-ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(failurePath, []byte("custom-bad"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := New(successPath, failurePath, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(p.successData) != "custom-ok" || string(p.failureData) != "custom-bad" {
		t.Error("expected custom chime data")
	}
}

func TestNewWithBadPath(t *testing.T) {
	if _, err := New("/nonexistent/path/ok.wav", "", true, nil); err == nil {
		t.Error("expected error for nonexistent success path")
	}
	if _, err := New("", "/nonexistent/path/bad.wav", true, nil); err == nil {
		t.Error("expected error for nonexistent failure path")
	}
}

func TestUndecodableChimeCompletes(t *testing.T) {
	p := &Player{enabled: true, successData: []byte("not a wav")}
	<-p.PlaySuccess()
}

func TestGeneratedToneShape(t *testing.T) {
	samples := generateTone(toneRate, toneDuration, 440, 660)
	want := int(float64(toneRate) * toneDuration)
	if len(samples) != want {
		t.Fatalf("expected %d samples, got %d", want, len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("expected tone to start silent, got %d", samples[0])
	}

	data, err := recorder.EncodeWAV(samples, toneRate)
	if err != nil {
		t.Fatal(err)
	}
	format, err := recorder.ReadWAVHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if format.SampleRate != toneRate || format.Channels != 1 {
		t.Errorf("unexpected tone format %s", format)
	}
}
