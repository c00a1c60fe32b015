package orchestrator

import "testing"

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"ERROR: Invalid output path\n", "Invalid output path"},
		{"[RECORDER] preparing\nERROR: first\nERROR: Recording timed out\n", "Recording timed out"},
		{"[RECORDER] noise only\n", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := errorMessage(tt.stderr); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.stderr, got, tt.want)
		}
	}
}

func TestHasLine(t *testing.T) {
	if !hasLine("RECORDING\nOK\n", "OK") {
		t.Error("expected OK line")
	}
	if hasLine("RECORDING\nNOT OK\n", "OK") {
		t.Error("expected partial match to be rejected")
	}
}

func TestMarkerWatcherSplitWrites(t *testing.T) {
	calls := 0
	w := newMarkerWatcher(func() { calls++ }, nil)
	for _, chunk := range []string{"REC", "ORD", "ING\n", "RECORDING\n"} {
		_, _ = w.Write([]byte(chunk))
	}
	if calls != 1 {
		t.Errorf("expected one notification, got %d", calls)
	}
	if w.output() != "RECORDING\nRECORDING\n" {
		t.Errorf("unexpected accumulated output %q", w.output())
	}
}
