package controller

import "sync"

// logRing is a bounded tail of the most recent log lines, backing the
// /log route. Capacity defaults to 1000 (config.LogTailLines).
type logRing struct {
	mu    sync.Mutex
	lines []string
	cap   int
}

func newLogRing(capacity int) *logRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &logRing{cap: capacity}
}

func (r *logRing) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) >= r.cap {
		r.lines = append(r.lines[:0], r.lines[1:]...)
	}
	r.lines = append(r.lines, line)
}

// LogTail returns every line currently held, oldest first, implementing
// control.LogProvider.
func (r *logRing) LogTail() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
