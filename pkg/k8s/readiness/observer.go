package readiness

import (
	"time"

	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
)

// Observer receives one Tick per poll attempt.
type Observer interface {
	Tick(label string, attempt int, elapsed time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(label string, attempt int, elapsed time.Duration)

// Tick calls f.
func (f ObserverFunc) Tick(label string, attempt int, elapsed time.Duration) {
	f(label, attempt, elapsed)
}

type nopObserver struct{}

func (nopObserver) Tick(string, int, time.Duration) {}

// DefaultProgressEvery is how many attempts pass between console progress lines.
const DefaultProgressEvery = 6

// ProgressObserver logs every attempt at debug level and prints an activity
// line on the console every Every attempts.
type ProgressObserver struct {
	Notifier *notify.Notifier
	Logger   logrus.FieldLogger
	Every    int
}

// NewProgressObserver creates a ProgressObserver printing every DefaultProgressEvery attempts.
func NewProgressObserver(notifier *notify.Notifier, logger logrus.FieldLogger) *ProgressObserver {
	return &ProgressObserver{Notifier: notifier, Logger: logger, Every: DefaultProgressEvery}
}

// Tick implements Observer.
func (p *ProgressObserver) Tick(label string, attempt int, elapsed time.Duration) {
	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"wait":    label,
			"attempt": attempt,
			"elapsed": elapsed.Round(time.Millisecond).String(),
		}).Debug("polling")
	}

	every := p.Every
	if every < 1 {
		every = 1
	}

	if p.Notifier != nil && attempt > 1 && (attempt-1)%every == 0 {
		p.Notifier.Activityf("still waiting for %s (%s elapsed)", label, elapsed.Round(time.Second))
	}
}
