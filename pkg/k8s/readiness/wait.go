package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Predicate reports whether the awaited condition holds.
//
// It is invoked repeatedly and must be safe to re-invoke. Returning an error
// wrapped with NotReady keeps the wait going; any other error aborts it.
type Predicate func(ctx context.Context) (bool, error)

// Option configures a single WaitFor call.
type Option func(*waitOptions)

type waitOptions struct {
	observer Observer
}

// WithObserver reports each poll attempt to obs.
func WithObserver(obs Observer) Option {
	return func(o *waitOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

type attemptResult struct {
	ok  bool
	err error
}

// WaitFor polls predicate until it returns true, the timeout elapses or ctx is cancelled.
//
// The predicate is invoked immediately and then once per interval. Each attempt runs
// in its own goroutine so a predicate that blocks and ignores its context cannot hold
// the caller past the deadline. A late result from such a predicate is discarded.
//
// On success WaitFor returns the time elapsed since the call started.
func WaitFor(
	ctx context.Context,
	label string,
	interval, timeout time.Duration,
	predicate Predicate,
	opts ...Option,
) (time.Duration, error) {
	switch {
	case interval <= 0:
		return 0, fmt.Errorf("%s: %w: %s", label, ErrInvalidInterval, interval)
	case timeout <= 0:
		return 0, fmt.Errorf("%s: %w: %s", label, ErrInvalidTimeout, timeout)
	case predicate == nil:
		return 0, fmt.Errorf("%s: %w", label, ErrNilPredicate)
	}

	options := waitOptions{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&options)
	}

	started := time.Now()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		attempts int
		lastErr  error
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return time.Since(started), waitEnded(ctx, label, timeout, started, attempts, lastErr)
		case <-timer.C:
		}

		attempts++
		options.observer.Tick(label, attempts, time.Since(started))

		results := make(chan attemptResult, 1)

		go func() {
			ok, err := predicate(waitCtx)
			results <- attemptResult{ok: ok, err: err}
		}()

		var res attemptResult

		select {
		case <-waitCtx.Done():
			return time.Since(started), waitEnded(ctx, label, timeout, started, attempts, lastErr)
		case res = <-results:
		}

		switch {
		case res.err == nil && res.ok:
			return time.Since(started), nil
		case res.err == nil:
		case errors.Is(res.err, ErrNotReady):
			lastErr = res.err
		case waitCtx.Err() != nil:
			// The predicate failed because the wait itself ended.
			lastErr = res.err

			return time.Since(started), waitEnded(ctx, label, timeout, started, attempts, lastErr)
		default:
			return time.Since(started), fmt.Errorf("%s: %w", label, res.err)
		}

		timer.Reset(interval)
	}
}

// waitEnded picks the error for a wait that ended without success. Parent
// cancellation wins over our own deadline.
func waitEnded(
	parent context.Context,
	label string,
	timeout time.Duration,
	started time.Time,
	attempts int,
	lastErr error,
) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}

	return &TimeoutError{
		Label:    label,
		Timeout:  timeout,
		Elapsed:  time.Since(started),
		Attempts: attempts,
		LastErr:  lastErr,
	}
}
