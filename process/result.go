package process

import (
	"strings"
	"time"
)

// Result is what a finished tool left behind.
type Result struct {
	Stdout []byte
	// Stderr holds at most the command's StderrLimit trailing bytes.
	Stderr []byte
	// ExitCode is -1 when the tool never started or was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// StderrTail returns the last n lines of stderr, trimmed. Tools like
// ffmpeg print a banner first and the actual failure last.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
