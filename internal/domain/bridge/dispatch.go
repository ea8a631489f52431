package bridge

import (
	"sync"
	"time"
)

// Dispatch tracks one in-flight asynchronous bridge call. The transport
// completes it exactly once; a single completion callback then updates
// the shared counters atomically. Works under concurrent completion even
// though the embedded runtime it models is single-threaded.
type Dispatch struct {
	operation string
	started   time.Time

	mu       sync.Mutex
	done     chan struct{}
	err      error
	finished bool
	onDone   func(error)
}

// NewDispatch creates a pending dispatch for the given operation
func NewDispatch(operation string) *Dispatch {
	return &Dispatch{
		operation: operation,
		started:   time.Now(),
		done:      make(chan struct{}),
	}
}

// Operation returns the logical operation name the dispatch carries
func (d *Dispatch) Operation() string {
	return d.operation
}

// Elapsed returns the time since the dispatch was created
func (d *Dispatch) Elapsed() time.Duration {
	return time.Since(d.started)
}

// Complete resolves the dispatch. The first call wins; later calls are
// ignored. The completion callback, if registered, runs on the caller's
// goroutine.
func (d *Dispatch) Complete(err error) {
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		return
	}
	d.finished = true
	d.err = err
	cb := d.onDone
	d.mu.Unlock()

	close(d.done)
	if cb != nil {
		cb(err)
	}
}

// OnComplete registers the single completion callback. If the dispatch
// already completed, fn runs immediately. A second registration replaces
// nothing and is ignored.
func (d *Dispatch) OnComplete(fn func(error)) {
	d.mu.Lock()
	if d.finished {
		err := d.err
		d.mu.Unlock()
		fn(err)
		return
	}
	if d.onDone == nil {
		d.onDone = fn
	}
	d.mu.Unlock()
}

// Done returns a channel closed when the dispatch completes
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Err returns the completion error, or nil if pending or successful
func (d *Dispatch) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Completed reports whether the dispatch has resolved
func (d *Dispatch) Completed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}
