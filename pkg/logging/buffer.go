package logging

import (
	"strings"
	"sync"
)

// captureLines is how many lines a capture keeps.
const captureLines = 16

// LogCaptureWriter keeps the most recent lines written to it.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// GlobalLogCapture receives every server log line.
var GlobalLogCapture = &LogCaptureWriter{}

// GlobalEventCapture holds recent selection and rebuild event lines.
var GlobalEventCapture = &LogCaptureWriter{}

// Write implements io.Writer. One call may carry several lines.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lines == nil {
		w.lines = make([]string, captureLines)
	}
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.lines[w.next] = line
		w.next = (w.next + 1) % len(w.lines)
		if w.next == 0 {
			w.full = true
		}
	}
	return len(p), nil
}

// GetLastLine returns the most recent line.
func (w *LogCaptureWriter) GetLastLine() string {
	tail := w.Tail(1)
	if len(tail) == 0 {
		return ""
	}
	return tail[0]
}

// Tail returns up to n recent lines, oldest first.
func (w *LogCaptureWriter) Tail(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	count := w.next
	if w.full {
		count = len(w.lines)
	}
	if n > count {
		n = count
	}
	out := make([]string, 0, n)
	for i := n; i > 0; i-- {
		idx := (w.next - i + len(w.lines)) % len(w.lines)
		out = append(out, w.lines[idx])
	}
	return out
}
