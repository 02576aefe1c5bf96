package component

import (
	"context"
	"fmt"
	"sync"
)

// RunFunc is a blocking function that returns when ctx is cancelled.
type RunFunc func(ctx context.Context) error

// Background runs a RunFunc on its own goroutine between Start and Stop.
type Background struct {
	name string
	run  RunFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	exitErr error
}

// NewBackground creates a Background component.
func NewBackground(name string, run RunFunc) *Background {
	return &Background{name: name, run: run}
}

func (b *Background) Name() string { return b.name }

// Start launches the run function. The start context only bounds startup;
// the run function gets its own context cancelled by Stop.
func (b *Background) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return fmt.Errorf("%s already started", b.name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		err := b.run(ctx)
		b.mu.Lock()
		b.exitErr = err
		b.mu.Unlock()
	}()
	return nil
}

// Stop cancels the run function and waits for it to return or for ctx to
// expire.
func (b *Background) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("%s did not stop in time: %w", b.name, ctx.Err())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exitErr != nil && b.exitErr != context.Canceled {
		return b.exitErr
	}
	return nil
}

// Health reports unhealthy once the run function has exited on its own.
func (b *Background) Health(_ context.Context) Health {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	if done == nil {
		return Unhealthy(b.name, "not started")
	}
	select {
	case <-done:
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.exitErr != nil {
			return Unhealthy(b.name, "exited: "+b.exitErr.Error())
		}
		return Unhealthy(b.name, "exited")
	default:
	}
	return Healthy(b.name)
}
