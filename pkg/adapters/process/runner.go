package process

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
)

// DefaultTimeout bounds a single tool invocation when no timeout is configured.
const DefaultTimeout = 10 * time.Minute

// Runner implements ports.ToolRunner by executing local processes.
// Each call is one stateless invocation; stdout is the only result channel.
type Runner struct {
	timeout time.Duration
	baseDir string
	env     []string
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTimeout bounds every invocation. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes binary with args and returns its trimmed stdout.
func (r *Runner) Run(ctx context.Context, binary string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = r.baseDir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("tool invocation finished",
		"binary", binary,
		"duration", time.Since(start),
		"err", err,
	)

	if err != nil {
		execErr := &domain.ToolExecutionError{
			Binary:   binary,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		// A killed process reports "signal: killed"; surface the deadline instead.
		if ctxErr := ctx.Err(); ctxErr != nil {
			execErr.Err = ctxErr
		}
		return "", execErr
	}

	return strings.TrimSpace(stdout.String()), nil
}
