package viewmodel

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// machine owns a screen's state. Updates are applied one at a time by a
// single goroutine, in the order they arrive; readers see whole snapshots.
type machine[S any] struct {
	name   string
	logger *log.Logger

	// onChange runs on the update goroutine and must not block on the screen.
	onChange func()
	fail     func(*S, Failure)

	state   atomic.Pointer[S]
	updates chan func(*S)
	stopped chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func newMachine[S any](name string, initial S, cfg config, fail func(*S, Failure)) *machine[S] {
	ctx, cancel := context.WithCancel(context.Background())
	m := &machine[S]{
		name:     name,
		logger:   cfg.logger,
		onChange: cfg.onChange,
		fail:     fail,
		updates:  make(chan func(*S)),
		stopped:  make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	m.state.Store(&initial)
	go m.loop()
	return m
}

func (m *machine[S]) loop() {
	defer close(m.stopped)
	for fn := range m.updates {
		next := *m.state.Load()
		fn(&next)
		m.state.Store(&next)
		if m.onChange != nil {
			m.onChange()
		}
	}
}

// State returns the latest snapshot.
func (m *machine[S]) State() S {
	return *m.state.Load()
}

// update queues fn and returns once the loop has taken it. It is a no-op
// after Close.
func (m *machine[S]) update(fn func(*S)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	m.updates <- fn
}

// report stores err as the screen's failure. Cancellation is not a failure.
func (m *machine[S]) report(what string, err error) {
	if err == nil || canceled(err) {
		return
	}
	f := classify(err)
	m.logger.Printf("%s: %s failed (%s): %v", m.name, what, f.Kind, err)
	m.update(func(s *S) { m.fail(s, f) })
}

// launchIn runs fn as a task bound to ctx, which must derive from the
// machine's context. A returned error becomes the screen's failure.
func (m *machine[S]) launchIn(ctx context.Context, what string, fn func(ctx context.Context) error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	id := uuid.NewString()
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		m.report("task "+id[:8]+" "+what, fn(ctx))
	}()
}

func (m *machine[S]) launch(what string, fn func(ctx context.Context) error) {
	m.launchIn(m.ctx, what, fn)
}

// child returns a context that ends with the machine or with its cancel func.
func (m *machine[S]) child() (context.Context, context.CancelFunc) {
	return context.WithCancel(m.ctx)
}

// Close cancels every task, waits for them and stops the update loop.
func (m *machine[S]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.tasks.Wait()
	close(m.updates)
	<-m.stopped
}
