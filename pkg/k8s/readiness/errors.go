package readiness

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeoutExceeded is returned (wrapped in a *TimeoutError) when a wait passes its deadline.
var ErrTimeoutExceeded = errors.New("timeout exceeded")

// ErrNotReady marks a predicate error as "not ready yet". Wrap errors with
// NotReady to have the waiter retry them instead of aborting.
var ErrNotReady = errors.New("not ready")

var (
	// ErrInvalidInterval is returned when the poll interval is not positive.
	ErrInvalidInterval = errors.New("poll interval must be positive")
	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
	// ErrNilPredicate is returned when no predicate is given.
	ErrNilPredicate = errors.New("predicate is nil")
)

// NotReady wraps err so the waiter treats it as a transient condition.
// NotReady(nil) returns ErrNotReady itself.
func NotReady(err error) error {
	if err == nil {
		return ErrNotReady
	}

	return &notReadyError{cause: err}
}

type notReadyError struct {
	cause error
}

func (e *notReadyError) Error() string {
	return e.cause.Error()
}

func (e *notReadyError) Is(target error) bool {
	return target == ErrNotReady
}

func (e *notReadyError) Unwrap() error {
	return e.cause
}

// TimeoutError describes a wait that did not observe its condition before the deadline.
type TimeoutError struct {
	Label    string
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	// LastErr is the last "not ready" error the predicate returned, if any.
	LastErr error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf(
		"%s: %v after %s (%d attempts, timeout %s)",
		e.Label, ErrTimeoutExceeded, e.Elapsed.Round(time.Millisecond), e.Attempts, e.Timeout,
	)

	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}

	return msg
}

// Is reports ErrTimeoutExceeded so callers can match with errors.Is.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeoutExceeded
}

// Unwrap exposes the last transient error.
func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}
