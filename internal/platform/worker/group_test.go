package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_StopCancelsWorkers(t *testing.T) {
	t.Parallel()

	g := NewGroup(context.Background())
	var stopped atomic.Int32
	for _, name := range []string{"price-stock", "price-crypto", "history-forex"} {
		g.Go(name, func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Add(1)
			return ctx.Err()
		})
	}

	require.Eventually(t, func() bool { return len(g.Running()) == 3 }, time.Second, 10*time.Millisecond)
	require.NoError(t, g.Stop(time.Second))
	assert.Equal(t, int32(3), stopped.Load())
	assert.Empty(t, g.Running())
}

func TestGroup_FailuresAreIsolated(t *testing.T) {
	t.Parallel()

	g := NewGroup(context.Background())
	g.Go("broken", func(context.Context) error { return errors.New("bad config") })
	g.Go("panics", func(context.Context) error { panic("nil map") })

	var alive atomic.Bool
	g.Go("healthy", func(ctx context.Context) error {
		alive.Store(true)
		<-ctx.Done()
		return nil
	})

	require.Eventually(t, func() bool {
		r := g.Running()
		return len(r) == 1 && r[0] == "healthy"
	}, time.Second, 10*time.Millisecond)
	assert.True(t, alive.Load())
	assert.NoError(t, g.Stop(time.Second))
}

func TestGroup_StopTimeout(t *testing.T) {
	t.Parallel()

	g := NewGroup(context.Background())
	release := make(chan struct{})
	defer close(release)
	g.Go("stuck", func(context.Context) error {
		<-release
		return nil
	})

	err := g.Stop(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrStopTimeout)
	assert.ErrorContains(t, err, "stuck")
}

func TestGroup_ParentCancel(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	g := NewGroup(parent)
	exited := make(chan struct{})
	g.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		close(exited)
		return nil
	})

	cancel()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("worker did not observe parent cancellation")
	}
	assert.NoError(t, g.Stop(time.Second))
}
