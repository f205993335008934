// Package shell executes external commands with captured output,
// deadlines, and cooperative cancellation.
//
// Arguments are always passed as an argument vector, never joined into a
// shell string, so values containing spaces, quotes, or metacharacters
// reach the child process as single literal arguments.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result holds the captured output and exit status of one invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration

	// TimedOut is set when the process was killed because the invocation
	// deadline expired. Canceled is set when the caller's context was
	// canceled first. Both leave ExitCode at the signal value the OS
	// reported (-1 on most platforms).
	TimedOut bool
	Canceled bool
}

// Options controls a single invocation.
type Options struct {
	// Dir is the working directory for the child process. Empty means
	// inherit the current directory.
	Dir string
	// Env entries are appended to the inherited environment.
	Env map[string]string
	// Timeout bounds the invocation. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration
}

// Runner abstracts command execution so orchestration layers can be
// tested without spawning real processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
	RunWith(ctx context.Context, opts Options, name string, args ...string) (*Result, error)
}

// DefaultRunner executes commands on the host.
type DefaultRunner struct{}

// NewRunner returns a Runner backed by real process execution.
func NewRunner() Runner {
	return &DefaultRunner{}
}

// Run executes a command with no extra options.
func (r *DefaultRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	return runCmd(ctx, Options{}, name, args...)
}

// RunWith executes a command with the given options.
func (r *DefaultRunner) RunWith(ctx context.Context, opts Options, name string, args ...string) (*Result, error) {
	return runCmd(ctx, opts, name, args...)
}

// runCmd is the single execution path. Expected failure modes (nonzero
// exit, timeout, cancellation) are reported through the Result, not as
// errors; only spawn-level failures return a non-nil error.
func runCmd(ctx context.Context, opts Options, name string, args ...string) (*Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(runCtx, name, args...)

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	if len(opts.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		ExitCode: 0,
		Duration: time.Since(start),
	}

	// Deadline and cancellation are tagged on the result rather than
	// returned as errors; the distinction matters to callers that map
	// outcomes to user-facing states.
	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		result.TimedOut = true
	} else if ctx.Err() != nil {
		result.Canceled = true
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	if result.TimedOut || result.Canceled {
		result.ExitCode = -1
		return result, nil
	}

	result.ExitCode = -1
	return result, fmt.Errorf("failed to execute '%s': %w", name, err)
}

// Run executes a command with a background context.
func Run(name string, args ...string) (*Result, error) {
	return runCmd(context.Background(), Options{}, name, args...)
}

// RunWithTimeout executes a command bounded by the given duration.
func RunWithTimeout(timeout time.Duration, name string, args ...string) (*Result, error) {
	return runCmd(context.Background(), Options{Timeout: timeout}, name, args...)
}

// RunInDir executes a command in a specific working directory.
func RunInDir(dir, name string, args ...string) (*Result, error) {
	return runCmd(context.Background(), Options{Dir: dir}, name, args...)
}

// CommandExists reports whether a command is available in PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Which returns the full path to a command, or empty string if not found.
func Which(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}
