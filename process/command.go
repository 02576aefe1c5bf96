package process

import (
	"io"
	"strings"
	"time"
)

// DefaultGracePeriod is how long a canceled tool gets to exit after SIGTERM.
const DefaultGracePeriod = 5 * time.Second

// DefaultStderrLimit is how much trailing stderr is kept. ffmpeg and yt-dlp
// print progress there; only the end explains a failure.
const DefaultStderrLimit = 64 << 10

// Command is one tool invocation.
type Command struct {
	// Binary is a path or a name looked up on PATH.
	Binary string
	Args   []string
	// Dir is the working directory; empty inherits ours.
	Dir string
	// Env entries (KEY=value) are appended to the worker's environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod defaults to DefaultGracePeriod.
	GracePeriod time.Duration
	// StderrLimit caps retained stderr in bytes, keeping the tail. Zero uses
	// DefaultStderrLimit.
	StderrLimit int
}

// String renders the command line for logs. Arguments are not quoted.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}

func (c Command) stderrLimit() int {
	if c.StderrLimit > 0 {
		return c.StderrLimit
	}
	return DefaultStderrLimit
}
