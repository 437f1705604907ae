package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultGracePeriod is how long a cancelled command gets between SIGTERM and SIGKILL.
const DefaultGracePeriod = 10 * time.Second

// ErrEmptyCommand is returned when an invocation has no argument vector.
var ErrEmptyCommand = errors.New("empty command")

// ErrStartFailed is returned when the process could not be started at all
// (binary missing, permission denied, ...).
var ErrStartFailed = errors.New("failed to start command")

// Invocation describes one external command.
type Invocation struct {
	// Args is the argument vector; Args[0] is the program.
	Args []string
	// Env holds KEY=VALUE overrides appended to the parent environment.
	Env []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String renders the argument vector for logs and error messages.
func (i Invocation) String() string {
	return strings.Join(i.Args, " ")
}

// CommandResult captures the exit code and the complete stdout and stderr of a command.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes external commands.
// Implementations never retry; callers poll through the readiness package when
// a command is expected to fail until some external state converges.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (CommandResult, error)
}

// ExecRunner runs commands as local processes.
type ExecRunner struct {
	logger      logrus.FieldLogger
	gracePeriod time.Duration
	stdout      io.Writer
	stderr      io.Writer
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithGracePeriod sets the delay between SIGTERM and SIGKILL on cancellation.
func WithGracePeriod(d time.Duration) Option {
	return func(r *ExecRunner) {
		r.gracePeriod = d
	}
}

// WithStreams tees command output to the given writers while it is captured.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewExecRunner creates a runner that writes every invocation and its full output
// to logger at debug level.
func NewExecRunner(logger logrus.FieldLogger, opts ...Option) *ExecRunner {
	runner := &ExecRunner{
		logger:      logger,
		gracePeriod: DefaultGracePeriod,
	}

	for _, opt := range opts {
		opt(runner)
	}

	if runner.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		runner.logger = discard
	}

	return runner
}

// Run executes the invocation and waits for it to finish.
//
// A non-zero exit status yields an *ExecutionError holding the captured output.
// When ctx is cancelled or its deadline passes the process receives SIGTERM and,
// after the grace period, SIGKILL; the returned *ExecutionError then wraps ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (CommandResult, error) {
	if len(inv.Args) == 0 {
		return CommandResult{}, ErrEmptyCommand
	}

	var outBuf, errBuf bytes.Buffer

	//nolint:gosec // argv comes from kci itself, never from untrusted input
	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	cmd.Stdout = tee(&outBuf, r.stdout)
	cmd.Stderr = tee(&errBuf, r.stderr)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.gracePeriod

	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	started := time.Now()
	runErr := cmd.Run()

	result := CommandResult{
		ExitCode: exitCode(cmd, runErr),
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
	}

	r.log(inv, result, time.Since(started), runErr)

	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) && ctx.Err() == nil {
		return result, fmt.Errorf("%w: %s: %w", ErrStartFailed, inv.Args[0], runErr)
	}

	execErr := &ExecutionError{
		Args:     append([]string(nil), inv.Args...),
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Cause = ctxErr
	}

	return result, execErr
}

func (r *ExecRunner) log(inv Invocation, result CommandResult, took time.Duration, runErr error) {
	fields := logrus.Fields{
		"command":   inv.String(),
		"exit_code": result.ExitCode,
		"duration":  took.String(),
		"stdout":    string(result.Stdout),
		"stderr":    string(result.Stderr),
	}

	if inv.Dir != "" {
		fields["dir"] = inv.Dir
	}

	if len(inv.Env) > 0 {
		fields["env"] = envKeys(inv.Env)
	}

	entry := r.logger.WithFields(fields)
	if runErr != nil {
		entry.WithError(runErr).Debug("command failed")

		return
	}

	entry.Debug("command succeeded")
}

func exitCode(cmd *exec.Cmd, runErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}

	if runErr != nil {
		return -1
	}

	return 0
}

// envKeys strips values so credentials passed through the environment never reach the log.
func envKeys(env []string) []string {
	keys := make([]string, 0, len(env))

	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		keys = append(keys, key)
	}

	return keys
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}

	return io.MultiWriter(buf, w)
}
