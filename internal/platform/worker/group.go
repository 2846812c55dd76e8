// Package worker supervises the long-running background loops of the server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// ErrStopTimeout is returned by Stop when workers are still running after the timeout.
var ErrStopTimeout = errors.New("worker: stop timed out")

// Group runs named workers that share one cancellable context.
// A failing worker is logged and does not stop the others.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]struct{}
}

// NewGroup returns a Group whose workers stop when parent is cancelled or Stop is called.
func NewGroup(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	return &Group{ctx: ctx, cancel: cancel, running: map[string]struct{}{}}
}

// Go starts fn in its own goroutine.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.mu.Lock()
	g.running[name] = struct{}{}
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			g.mu.Lock()
			delete(g.running, name)
			g.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("worker panicked", "worker", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		slog.Info("worker started", "worker", name)
		if err := fn(g.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("worker exited with error", "worker", name, "error", err)
			return
		}
		slog.Info("worker stopped", "worker", name)
	}()
}

// Running returns the names of workers that have not returned yet.
func (g *Group) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.running))
	for n := range g.running {
		names = append(names, n)
	}
	return names
}

// Stop cancels every worker and waits up to timeout for them to return.
func (g *Group) Stop(timeout time.Duration) error {
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: still running %v", ErrStopTimeout, g.Running())
	}
}
