package process

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/nezhar/voicevault/logger"
)

// Runner executes commands. Media tools depend on it so tests can script
// their output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) { return f(ctx, cmd) }

// Config configures an Executor.
type Config struct {
	// GracePeriod applies to commands that do not set their own.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds each execution. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Executor runs real subprocesses with configured defaults.
type Executor struct {
	config Config
	log    *logger.Logger
}

var _ Runner = (*Executor)(nil)

// NewExecutor creates an Executor.
func NewExecutor(cfg Config, log *logger.Logger) *Executor {
	return &Executor{config: cfg, log: log.WithComponent("process")}
}

// Run executes cmd, applying the executor's grace period and timeout.
func (e *Executor) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && e.config.GracePeriod > 0 {
		cmd.GracePeriod = e.config.GracePeriod
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	res, err := Run(ctx, cmd)
	if res != nil {
		e.log.WithContext(ctx).Debug("Process finished", map[string]interface{}{
			"command":     cmd.String(),
			"exit_code":   res.ExitCode,
			"duration_ms": res.Duration.Milliseconds(),
		})
	}
	return res, err
}

// LookPath verifies that every binary is installed.
func LookPath(binaries ...string) error {
	for _, b := range binaries {
		if _, err := exec.LookPath(b); err != nil {
			return fmt.Errorf("%w: %s", ErrBinaryNotFound, b)
		}
	}
	return nil
}
