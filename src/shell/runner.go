// Package shell runs external processes for the command and python tools.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrEmptyCommand = errors.New("empty command not allowed")
	ErrTimeout      = errors.New("process timed out")
)

// Spec describes one process invocation.
type Spec struct {
	Argv    []string
	Dir     string
	Stdin   io.Reader
	Timeout time.Duration
}

// ShellResult represents the result of a finished process
type ShellResult struct {
	Stdout      string
	Stderr      string
	ExitCode    int
	WorkingDir  string
	CommandLine string
	Duration    time.Duration
}

// Runner starts processes without an intermediate shell.
type Runner struct {
	logger *slog.Logger
	// WaitDelay bounds how long output pipes are drained after a kill.
	WaitDelay time.Duration
}

// NewRunner creates a runner logging to logger.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:    logger.With("component", "shell"),
		WaitDelay: time.Second,
	}
}

// Run executes spec and waits for it. A non-zero exit is not an error: the
// result carries the exit code. Hitting the timeout returns ErrTimeout
// together with whatever output was captured.
func (r *Runner) Run(ctx context.Context, spec Spec) (*ShellResult, error) {
	if len(spec.Argv) == 0 || strings.TrimSpace(spec.Argv[0]) == "" {
		return nil, ErrEmptyCommand
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay

	result := &ShellResult{
		WorkingDir:  spec.Dir,
		CommandLine: strings.Join(spec.Argv, " "),
	}

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if runCtx.Err() != nil && ctx.Err() == nil {
		r.logger.Warn("process timed out", "command", result.CommandLine, "timeout", spec.Timeout)
		result.ExitCode = -1
		return result, ErrTimeout
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("failed to start %s: %w", spec.Argv[0], err)
	}

	r.logger.Debug("process finished",
		"command", result.CommandLine,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result, nil
}
