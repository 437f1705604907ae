package lifecycle_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) action(name string, err error) lifecycle.Action {
	return lifecycle.Action{
		Name: name,
		Run: func(context.Context) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.ran = append(r.ran, name)

			return err
		},
		ManualCleanup: "delete " + name + " by hand",
	}
}

func TestRunAll_ReverseOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	lc := lifecycle.New()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, lc.Register(rec.action(name, nil)))
	}

	require.NoError(t, lc.RunAll(context.Background()))
	assert.Equal(t, []string{"C", "B", "A"}, rec.ran)
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	boom := errors.New("bucket not empty")
	lc := lifecycle.New()

	require.NoError(t, lc.Register(rec.action("A", nil)))
	require.NoError(t, lc.Register(rec.action("B", boom)))
	require.NoError(t, lc.Register(rec.action("C", nil)))

	err := lc.RunAll(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "cleanup B")
	assert.Equal(t, []string{"C", "B", "A"}, rec.ran)
}

func TestRunAll_JoinsEveryFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	first := errors.New("first")
	second := errors.New("second")
	lc := lifecycle.New()

	require.NoError(t, lc.Register(rec.action("A", first)))
	require.NoError(t, lc.Register(rec.action("B", second)))

	err := lc.RunAll(context.Background())

	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
}

func TestRunAll_SecondCallIsNoop(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	lc := lifecycle.New()

	require.NoError(t, lc.Register(rec.action("A", nil)))
	require.NoError(t, lc.RunAll(context.Background()))
	require.NoError(t, lc.RunAll(context.Background()))

	assert.Equal(t, []string{"A"}, rec.ran)
	assert.Zero(t, lc.Len())
}

func TestRunAll_RecoversPanics(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	lc := lifecycle.New()

	require.NoError(t, lc.Register(rec.action("A", nil)))
	require.NoError(t, lc.Register(lifecycle.Action{
		Name: "B",
		Run:  func(context.Context) error { panic("nil map") },
	}))

	err := lc.RunAll(context.Background())

	require.ErrorIs(t, err, lifecycle.ErrActionPanicked)
	assert.Equal(t, []string{"A"}, rec.ran)
}

func TestRunAll_RunsAfterParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error

	lc := lifecycle.New(lifecycle.WithActionTimeout(time.Second))
	require.NoError(t, lc.Register(lifecycle.Action{
		Name: "cluster",
		Run: func(ctx context.Context) error {
			sawErr = ctx.Err()

			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)

			return nil
		},
	}))

	require.NoError(t, lc.RunAll(ctx))
	assert.NoError(t, sawErr)
}

func TestRunAll_ActionTimeout(t *testing.T) {
	t.Parallel()

	lc := lifecycle.New(lifecycle.WithActionTimeout(50 * time.Millisecond))
	require.NoError(t, lc.Register(lifecycle.Action{
		Name: "slow",
		Run: func(ctx context.Context) error {
			<-ctx.Done()

			return ctx.Err()
		},
	}))

	err := lc.RunAll(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegister_RejectsNilRun(t *testing.T) {
	t.Parallel()

	err := lifecycle.New().Register(lifecycle.Action{Name: "empty"})
	require.ErrorIs(t, err, lifecycle.ErrNilAction)
}

func TestTrack_KeepResourcesSurfacesManualCleanup(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	rec := &recorder{}
	lc := lifecycle.New(
		lifecycle.WithKeepResources(true),
		lifecycle.WithNotifier(notify.New(&out, nil)),
		lifecycle.WithLogger(logger),
	)

	require.NoError(t, lc.Track(rec.action("bucket", nil)))
	require.NoError(t, lc.RunAll(context.Background()))

	assert.Empty(t, rec.ran)
	assert.Zero(t, lc.Len())
	require.Len(t, lc.Skipped(), 1)
	assert.Contains(t, out.String(), "delete bucket by hand")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "cleanup skipped", entry.Message)
	assert.Equal(t, "delete bucket by hand", entry.Data["manual_cleanup"])
}

func TestTrack_RegistersByDefault(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	lc := lifecycle.New()

	require.NoError(t, lc.Track(rec.action("cluster", nil)))
	assert.Equal(t, 1, lc.Len())
}

func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()

	lc := lifecycle.New()

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = lc.Register(lifecycle.Action{Name: "x", Run: func(context.Context) error { return nil }})
		}()
	}

	wg.Wait()
	assert.Equal(t, 50, lc.Len())
}
