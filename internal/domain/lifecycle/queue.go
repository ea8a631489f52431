package lifecycle

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/shared/types"
)

const (
	// DefaultCapacity bounds the queue; the oldest entry is evicted
	// once the bound is hit. Lifecycle events are diagnostic telemetry,
	// so lossy under sustained backend unavailability.
	DefaultCapacity = 256
	// DefaultFlushInterval is the fixed delivery cadence.
	DefaultFlushInterval = time.Second
)

// Caller dispatches one payload to the backend. Implemented by the
// bridge resolver. A false return means nothing was dispatched and the
// payload stays queued.
type Caller interface {
	Call(operation string, payload interface{}) bool
}

// Options configures a Queue.
type Options struct {
	Capacity      int
	FlushInterval time.Duration
	Logger        *logging.Logger
	Metrics       *monitoring.Metrics
}

// Queue buffers window lifecycle payloads for best-effort delivery.
// Insertion order is retry order; payloads that fail to resolve are
// re-enqueued ahead of newer arrivals so relative order never changes.
type Queue struct {
	caller   Caller
	capacity int
	interval time.Duration
	log      *logging.Logger
	metrics  *monitoring.Metrics

	mu        sync.Mutex
	entries   []types.LifecyclePayload
	enqueued  uint64
	delivered uint64
	dropped   uint64
	requeued  uint64
	started   bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a queue draining into the given caller.
func New(caller Caller, opts Options) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	interval := opts.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	return &Queue{
		caller:   caller,
		capacity: capacity,
		interval: interval,
		log:      log.Component("lifecycle"),
		metrics:  opts.Metrics,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue accepts a payload for eventual delivery. At capacity the
// oldest entry is evicted to admit the new one.
func (q *Queue) Enqueue(p types.LifecyclePayload) {
	q.mu.Lock()
	if len(q.entries) >= q.capacity {
		evicted := len(q.entries) - q.capacity + 1
		q.entries = append(q.entries[:0], q.entries[evicted:]...)
		q.dropped += uint64(evicted)
		q.metrics.RecordDropped(evicted)
	}
	q.entries = append(q.entries, p)
	q.enqueued++
	depth := len(q.entries)
	q.mu.Unlock()

	q.metrics.RecordEnqueue(p.Event)
	q.metrics.SetQueueDepth(depth)
}

// Start launches the periodic flush loop.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go q.run()
}

// Stop cancels the flush loop and waits for it to exit. Queued payloads
// are left in place; they are diagnostic and die with the session.
func (q *Queue) Stop() {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	q.stopOnce.Do(func() { close(q.stop) })
	if started {
		<-q.done
	}
}

func (q *Queue) run() {
	defer close(q.done)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.Flush()
		}
	}
}

// Flush snapshots the queue, clears it, and attempts delivery of every
// snapshotted payload in original order. Payloads whose dispatch returns
// false are re-enqueued ahead of anything that arrived mid-flush. A true
// return counts as delivered even though the underlying call may still
// fail asynchronously.
func (q *Queue) Flush() {
	q.mu.Lock()
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return
	}
	batch := q.entries
	q.entries = nil
	q.mu.Unlock()

	var failed []types.LifecyclePayload
	delivered := 0
	for _, p := range batch {
		if q.caller.Call(types.OpLogWindowLifecycle, p) {
			delivered++
			continue
		}
		failed = append(failed, p)
	}

	q.mu.Lock()
	if len(failed) > 0 {
		q.entries = append(failed, q.entries...)
		q.requeued += uint64(len(failed))
		if overflow := len(q.entries) - q.capacity; overflow > 0 {
			q.entries = append(q.entries[:0], q.entries[overflow:]...)
			q.dropped += uint64(overflow)
			q.metrics.RecordDropped(overflow)
		}
	}
	q.delivered += uint64(delivered)
	depth := len(q.entries)
	q.mu.Unlock()

	q.metrics.RecordDelivered(delivered)
	q.metrics.RecordRequeued(len(failed))
	q.metrics.SetQueueDepth(depth)

	if len(failed) > 0 {
		q.log.Debug("Flush left payloads queued",
			zap.Int("delivered", delivered),
			zap.Int("requeued", len(failed)))
	}
}

// Len returns the number of payloads waiting for delivery
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Stats returns a copy of the queue counters for diagnostics
func (q *Queue) Stats() types.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return types.QueueStats{
		Depth:     len(q.entries),
		Capacity:  q.capacity,
		Enqueued:  q.enqueued,
		Delivered: q.delivered,
		Dropped:   q.dropped,
		Requeued:  q.requeued,
	}
}
