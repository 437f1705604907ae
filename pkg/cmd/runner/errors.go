package runner

import (
	"bytes"
	"fmt"
	"strings"
)

// ExecutionError reports an external command that exited with a non-zero status,
// or that was killed because its context ended. Stdout and Stderr hold the exact
// bytes the process wrote.
type ExecutionError struct {
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Cause is set to the context error when the command was killed on cancellation.
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	command := strings.Join(e.Args, " ")

	msg := fmt.Sprintf("command %q exited with code %d", command, e.ExitCode)
	if e.Cause != nil {
		msg = fmt.Sprintf("command %q was killed: %v", command, e.Cause)
	}

	if detail := lastLine(e.Stderr); detail != "" {
		return msg + ": " + detail
	}

	return msg
}

// Unwrap exposes the cancellation cause for errors.Is(err, context.DeadlineExceeded).
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// lastLine returns the last non-empty line of out, which for most CLIs is the actual error.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))

	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(string(lines[i])); line != "" {
			return line
		}
	}

	return ""
}
