package test

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

// LifecycleRecorder captures lifecycle hooks appended during tests.
type LifecycleRecorder struct {
	Hooks []fx.Hook
}

// Append stores hook for later invocation.
func (l *LifecycleRecorder) Append(h fx.Hook) {
	l.Hooks = append(l.Hooks, h)
}

// ShutdownerStub records shutdown invocations.
type ShutdownerStub struct {
	Called chan struct{}
}

// Shutdown notifies tests about graceful termination.
func (s *ShutdownerStub) Shutdown(...fx.ShutdownOption) error {
	if s.Called != nil {
		select {
		case s.Called <- struct{}{}:
		default:
		}
	}
	return nil
}

// DispatcherStub records Start and Stop calls of a background pool.
type DispatcherStub struct {
	mu       sync.Mutex
	Starts   int
	Stops    int
	StopCtxs []context.Context
	Names    []string
}

// Start records a start.
func (d *DispatcherStub) Start(context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Starts++
}

// Stop records a stop and the context it was given.
func (d *DispatcherStub) Stop(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Stops++
	d.StopCtxs = append(d.StopCtxs, ctx)
}

// Channels returns configured names.
func (d *DispatcherStub) Channels() []string {
	return d.Names
}

// Counts returns recorded start and stop counts.
func (d *DispatcherStub) Counts() (starts, stops int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Starts, d.Stops
}
