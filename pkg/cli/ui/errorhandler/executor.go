// Package errorhandler runs the root command and turns its failure into a
// console message and a process exit code.
package errorhandler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitUsage is returned for flag parse errors and invalid configuration.
	ExitUsage = 2
)

// ErrUsage wraps flag parse errors.
var ErrUsage = errors.New("usage error")

// Executor runs a cobra command, capturing its error stream.
type Executor struct {
	normalizer  DefaultNormalizer
	usageErrors []error
}

// Option configures an Executor.
type Option func(*Executor)

// WithUsageErrors adds sentinels that map to ExitUsage.
func WithUsageErrors(sentinels ...error) Option {
	return func(e *Executor) {
		e.usageErrors = append(e.usageErrors, sentinels...)
	}
}

// NewExecutor constructs an Executor.
func NewExecutor(opts ...Option) *Executor {
	executor := &Executor{
		normalizer:  DefaultNormalizer{},
		usageErrors: []error{ErrUsage},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs cmd. It returns nil on success, or a *CommandError carrying the
// normalized stderr output and the original error.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	err := cmd.Execute()
	if err == nil {
		return nil
	}

	return &CommandError{
		message: e.normalizer.Normalize(errBuf.String()),
		cause:   err,
	}
}

// ExitCode maps the result of Execute to a process exit code.
func (e *Executor) ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	for _, sentinel := range e.usageErrors {
		if errors.Is(err, sentinel) {
			return ExitUsage
		}
	}

	return ExitFailure
}

// CommandError is a command failure augmented with normalized stderr output.
type CommandError struct {
	message string
	cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message != "":
		if strings.Contains(e.message, e.cause.Error()) {
			return e.message
		}

		return e.message + ": " + e.cause.Error()
	default:
		return e.cause.Error()
	}
}

// Unwrap exposes the underlying cause.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// DefaultNormalizer cleans up cobra's error output.
type DefaultNormalizer struct{}

// Normalize trims whitespace and drops cobra's "Error:" prefix, keeping any usage hint lines.
func (DefaultNormalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	lines[0] = strings.TrimPrefix(strings.TrimSpace(lines[0]), "Error: ")

	return strings.Join(lines, "\n")
}
