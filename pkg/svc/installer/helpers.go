package installer

import "time"

const (
	// DefaultRetries is the default number of install retry windows.
	DefaultRetries = 5
	// RetryWindow is the time one retry adds to the install timeout.
	RetryWindow = time.Minute
)

// InstallTimeout converts a retry count into a wait timeout.
// Counts below one fall back to DefaultRetries.
func InstallTimeout(retries int) time.Duration {
	if retries < 1 {
		retries = DefaultRetries
	}

	return time.Duration(retries) * RetryWindow
}
