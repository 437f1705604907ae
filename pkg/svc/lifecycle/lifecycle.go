// Package lifecycle records teardown actions for resources kci creates and
// runs them in reverse order when the pipeline ends.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
)

// DefaultActionTimeout bounds each cleanup action.
const DefaultActionTimeout = 15 * time.Minute

// ErrNilAction is returned when an action has no Run function.
var ErrNilAction = errors.New("cleanup action has no run function")

// ErrActionPanicked wraps a panic raised by a cleanup action.
var ErrActionPanicked = errors.New("cleanup action panicked")

// Action tears down one resource.
type Action struct {
	// Name identifies the resource in output and errors, e.g. "kops cluster ci-1234".
	Name string
	// Run deletes the resource.
	Run func(ctx context.Context) error
	// ManualCleanup tells a human how to delete the resource when the action is skipped.
	ManualCleanup string
}

// Lifecycle is an ordered registry of cleanup actions. It is safe for concurrent use.
type Lifecycle struct {
	mu      sync.Mutex
	actions []Action
	skipped []Action

	keepResources bool
	actionTimeout time.Duration
	notifier      *notify.Notifier
	logger        logrus.FieldLogger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithKeepResources makes Track skip every action instead of registering it.
func WithKeepResources(keep bool) Option {
	return func(l *Lifecycle) {
		l.keepResources = keep
	}
}

// WithActionTimeout overrides DefaultActionTimeout.
func WithActionTimeout(timeout time.Duration) Option {
	return func(l *Lifecycle) {
		if timeout > 0 {
			l.actionTimeout = timeout
		}
	}
}

// WithNotifier sets where progress and manual-cleanup warnings are printed.
func WithNotifier(notifier *notify.Notifier) Option {
	return func(l *Lifecycle) {
		l.notifier = notifier
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// New creates an empty Lifecycle.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{actionTimeout: DefaultActionTimeout}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Register appends an action. Actions run in reverse registration order.
func (l *Lifecycle) Register(action Action) error {
	if action.Run == nil {
		return fmt.Errorf("%w: %s", ErrNilAction, action.Name)
	}

	l.mu.Lock()
	l.actions = append(l.actions, action)
	l.mu.Unlock()

	l.debug(action, "cleanup registered")

	return nil
}

// Skip records an action the user opted out of and surfaces its manual-cleanup message.
func (l *Lifecycle) Skip(action Action) {
	l.mu.Lock()
	l.skipped = append(l.skipped, action)
	l.mu.Unlock()

	msg := action.ManualCleanup
	if msg == "" {
		msg = "delete " + action.Name + " manually"
	}

	if l.notifier != nil {
		l.notifier.Warningf("keeping %s: %s", action.Name, msg)
	}

	l.debug(action, "cleanup skipped")
}

// Track registers the action, or skips it when resources are kept.
func (l *Lifecycle) Track(action Action) error {
	if l.keepResources {
		l.Skip(action)

		return nil
	}

	return l.Register(action)
}

// Len returns the number of pending actions.
func (l *Lifecycle) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.actions)
}

// Skipped returns the actions recorded with Skip.
func (l *Lifecycle) Skipped() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Action(nil), l.skipped...)
}

// RunAll runs every registered action, last registered first, and empties the registry.
//
// A failing action does not stop the others; all failures are returned joined.
// Each action gets its own timeout on a context that survives cancellation of ctx,
// so cleanups still run after an interrupt.
func (l *Lifecycle) RunAll(ctx context.Context) error {
	l.mu.Lock()
	actions := l.actions
	l.actions = nil
	l.mu.Unlock()

	if len(actions) == 0 {
		return nil
	}

	base := context.WithoutCancel(ctx)

	var errs []error

	for i := len(actions) - 1; i >= 0; i-- {
		action := actions[i]

		if l.notifier != nil {
			l.notifier.Activityf("cleaning up %s", action.Name)
		}

		err := l.run(base, action)
		if err != nil {
			if l.notifier != nil {
				l.notifier.Errorf("cleanup of %s failed: %v", action.Name, err)
			}

			if l.logger != nil {
				l.logger.WithField("action", action.Name).WithError(err).Error("cleanup failed")
			}

			errs = append(errs, fmt.Errorf("cleanup %s: %w", action.Name, err))

			continue
		}

		if l.notifier != nil {
			l.notifier.Successf("cleaned up %s", action.Name)
		}

		l.debug(action, "cleanup done")
	}

	return errors.Join(errs...)
}

func (l *Lifecycle) run(base context.Context, action Action) (err error) {
	ctx, cancel := context.WithTimeout(base, l.actionTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActionPanicked, r)
		}
	}()

	return action.Run(ctx)
}

func (l *Lifecycle) debug(action Action, msg string) {
	if l.logger == nil {
		return
	}

	l.logger.WithFields(logrus.Fields{
		"action":         action.Name,
		"manual_cleanup": action.ManualCleanup,
	}).Debug(msg)
}
