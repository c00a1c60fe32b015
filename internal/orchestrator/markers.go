package orchestrator

import (
	"bytes"
	"log"
	"strings"
	"sync"

	"github.com/Danondso/miccheck/internal/recorder"
)

// markerWatcher accumulates recorder stdout and fires onStarted the first
// time RECORDING appears anywhere in it, even split across writes.
type markerWatcher struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	started sync.Once
	notify  []func()
}

func newMarkerWatcher(fns ...func()) *markerWatcher {
	w := &markerWatcher{}
	for _, fn := range fns {
		if fn != nil {
			w.notify = append(w.notify, fn)
		}
	}
	return w
}

func (w *markerWatcher) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf.Write(p)
	seen := bytes.Contains(w.buf.Bytes(), []byte(recorder.MarkerRecording))
	w.mu.Unlock()

	if seen {
		w.started.Do(func() {
			for _, fn := range w.notify {
				fn()
			}
		})
	}
	return len(p), nil
}

func (w *markerWatcher) output() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// stderrSink keeps recorder stderr for classification and mirrors its
// lines into the debug log.
type stderrSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	logger *log.Logger
	debug  bool
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
	if s.debug && s.logger != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				s.logger.Printf("recorder stderr: %s", line)
			}
		}
	}
	return len(p), nil
}

func (s *stderrSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// errorMessage returns the text of the last ERROR: line, without the tag.
func errorMessage(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if idx := strings.Index(lines[i], recorder.ErrorTag); idx >= 0 {
			return strings.TrimSpace(lines[i][idx+len(recorder.ErrorTag):])
		}
	}
	return ""
}

// hasLine reports whether out contains want as a whole line.
func hasLine(out, want string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}
