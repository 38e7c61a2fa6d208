package pagedlist

import "sync"

// Executor schedules tasks onto some execution context. A PagedList uses
// two: the controlling executor, through which every storage mutation and
// boundary notification is marshalled, and a fetch executor on which load
// dispatch runs. Execute must not block the caller.
type Executor interface {
	Execute(task func())
}

// ImmediateExecutor runs each task inline on the calling goroutine. It is
// the default for both executors, which makes a list fully synchronous:
// suitable for tests and for consumers that already drive the list from a
// single goroutine.
type ImmediateExecutor struct{}

// Execute runs task before returning.
func (ImmediateExecutor) Execute(task func()) { task() }

// GoExecutor runs each task on its own goroutine. Useful as a fetch
// executor when the backing store performs blocking I/O.
type GoExecutor struct{}

// Execute runs task on a new goroutine.
func (GoExecutor) Execute(task func()) { go task() }

// SerialExecutor runs tasks one at a time, in submission order, on a single
// dedicated goroutine. It is the controlling-context replacement for a UI
// toolkit's main-loop handler: exactly one hand-off point, order
// preserving.
type SerialExecutor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	done    chan struct{}
}

// NewSerialExecutor creates a SerialExecutor and starts its worker
// goroutine. Call Stop when the executor is no longer needed.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Execute enqueues task without blocking. Tasks submitted after Stop are
// discarded.
func (e *SerialExecutor) Execute(task func()) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, task)
	e.cond.Signal()
	e.mu.Unlock()
}

// Stop drains the tasks already queued, stops the worker, and waits for it
// to exit. Stop is idempotent.
func (e *SerialExecutor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.stopped = true
	e.cond.Signal()
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.stopped {
			e.cond.Wait()
		}
		if len(e.queue) == 0 && e.stopped {
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		task()
	}
}
