// Package recorder collects the human-readable transcript of one run.
package recorder

import (
	"strings"
	"sync"
)

// Recorder is an append-only line sink. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// Log appends one line.
func (r *Recorder) Log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the logged lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Transcript joins all lines with newlines.
func (r *Recorder) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}
