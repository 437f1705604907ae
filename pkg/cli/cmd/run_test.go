package cmd_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/devantler-tech/kci/pkg/cli/cmd"
	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCleanup_ReleasesSignalsBeforeTeardown(t *testing.T) {
	t.Parallel()

	var (
		order []string
		out   bytes.Buffer
	)

	ctx, cancel := context.WithCancel(context.Background())

	lc := lifecycle.New()
	require.NoError(t, lc.Track(lifecycle.Action{
		Name: "kops cluster ci.k8s.local",
		Run: func(context.Context) error {
			order = append(order, "cleanup")

			return nil
		},
	}))

	// The signal context is cancelled when its handler is released.
	err := cmd.RunCleanup(ctx, lc, notify.New(&out, nil), func() {
		order = append(order, "release")
		cancel()
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"release", "cleanup"}, order)
	assert.Contains(t, out.String(), "Clean up")
	assert.Zero(t, lc.Len())
}

func TestRunCleanup_NothingTracked(t *testing.T) {
	t.Parallel()

	var (
		released bool
		out      bytes.Buffer
	)

	err := cmd.RunCleanup(context.Background(), lifecycle.New(), notify.New(&out, nil), func() { released = true })

	require.NoError(t, err)
	assert.True(t, released)
	assert.NotContains(t, out.String(), "Clean up")
}
