package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ErrBinaryNotFound is returned when the tool is not installed.
var ErrBinaryNotFound = errors.New("process: binary not found")

// Run starts cmd and waits for it. On cancellation the whole process group
// gets SIGTERM, then SIGKILL once the grace period has passed.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: cmd.stderrLimit()}
	c := build(ctx, cmd, &stdout, stderr)

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	return res, runError(ctx, cmd, res, err)
}

func build(ctx context.Context, cmd Command, stdout, stderr io.Writer) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured tools is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	c.Stdout = stdout
	c.Stderr = stderr

	// ffmpeg and yt-dlp spawn helpers; signal the group, not just the leader.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()
	return c
}

func runError(ctx context.Context, cmd Command, res *Result, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, cmd.Binary)
	case ctx.Err() != nil:
		return fmt.Errorf("process: %s stopped: %w", cmd.Binary, ctx.Err())
	default:
		return fmt.Errorf("process: %s exited with code %d: %w", cmd.Binary, res.ExitCode, err)
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailBuffer) Bytes() []byte { return t.buf }
