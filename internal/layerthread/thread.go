package layerthread

import (
	"context"
	"sync"
)

// Thread is the single consumer of scene mutating work. Any goroutine may Post a task;
// tasks run one at a time, in posting order, on whichever goroutine consumes the queue
// (Run or Drain, never both at once).
type Thread struct {
	name   string
	mutex  sync.Mutex
	tasks  []func()
	wakeup chan struct{}
	closed bool
}

func NewThread(name string) *Thread {
	return &Thread{
		name:   name,
		wakeup: make(chan struct{}, 1),
	}
}

func (t *Thread) Name() string {
	return t.name
}

// Enqueues a task without blocking. Returns false once the thread is closed.
func (t *Thread) Post(task func()) bool {
	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return false
	}
	t.tasks = append(t.tasks, task)
	t.mutex.Unlock()

	select {
	case t.wakeup <- struct{}{}:
	default:
	}
	return true
}

// Consumes tasks until the context is done or the thread is closed
func (t *Thread) Run(ctx context.Context) {
	for {
		t.Drain()

		if t.isClosed() {
			// tasks posted before Close but after the drain above
			t.Drain()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-t.wakeup:
		}
	}
}

// Runs every queued task on the calling goroutine, including tasks posted while draining.
// Returns the number of tasks run.
func (t *Thread) Drain() int {
	n := 0
	for {
		t.mutex.Lock()
		tasks := t.tasks
		t.tasks = nil
		t.mutex.Unlock()

		if len(tasks) == 0 {
			return n
		}
		for _, task := range tasks {
			task()
			n++
		}
	}
}

// Waits until every task posted before the call has run. Meant for callers outside the
// thread; calling it from a task deadlocks.
func (t *Thread) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if !t.Post(func() { close(done) }) {
		return context.Canceled
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Thread) Pending() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.tasks)
}

// Stops accepting tasks and makes Run return after draining what is queued
func (t *Thread) Close() {
	t.mutex.Lock()
	t.closed = true
	t.mutex.Unlock()

	select {
	case t.wakeup <- struct{}{}:
	default:
	}
}

func (t *Thread) isClosed() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.closed
}
