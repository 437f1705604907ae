package readiness_test

import (
	"errors"
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrTimeoutExceeded(t *testing.T) {
	t.Parallel()

	require.Error(t, readiness.ErrTimeoutExceeded)
	assert.Equal(t, "timeout exceeded", readiness.ErrTimeoutExceeded.Error())
}

func TestNotReady(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: i/o timeout")
	err := readiness.NotReady(cause)

	require.ErrorIs(t, err, readiness.ErrNotReady)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Error())
	assert.Equal(t, readiness.ErrNotReady, readiness.NotReady(nil))
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	last := readiness.NotReady(errors.New("validation failed"))
	err := &readiness.TimeoutError{
		Label:    "kops validate",
		Timeout:  time.Minute,
		Elapsed:  61 * time.Second,
		Attempts: 3,
		LastErr:  last,
	}

	require.ErrorIs(t, err, readiness.ErrTimeoutExceeded)
	require.ErrorIs(t, err, readiness.ErrNotReady)
	assert.Equal(t,
		"kops validate: timeout exceeded after 1m1s (3 attempts, timeout 1m0s): last error: validation failed",
		err.Error(),
	)
}
