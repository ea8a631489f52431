package lifecycle

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskshell/deskshell/internal/shared/types"
)

// scriptedCaller is a Caller whose accept decision is programmable per
// payload. It records every delivered payload in order.
type scriptedCaller struct {
	mu        sync.Mutex
	accept    func(p types.LifecyclePayload) bool
	delivered []types.LifecyclePayload
	ops       []string
}

func (c *scriptedCaller) Call(operation string, payload interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := payload.(types.LifecyclePayload)
	c.ops = append(c.ops, operation)
	if c.accept != nil && !c.accept(p) {
		return false
	}
	c.delivered = append(c.delivered, p)
	return true
}

func (c *scriptedCaller) deliveredIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.delivered))
	for i, p := range c.delivered {
		ids[i] = p.WindowID
	}
	return ids
}

func payloadFor(id string, event types.LifecycleEvent) types.LifecyclePayload {
	return types.LifecyclePayload{
		Event:     event,
		WindowID:  id,
		Title:     "Window " + id,
		Timestamp: "2026-08-23T10:00:00.000Z",
	}
}

func TestFlushDeliversInOrder(t *testing.T) {
	caller := &scriptedCaller{}
	q := New(caller, Options{})

	q.Enqueue(payloadFor("w1", types.EventOpened))
	q.Enqueue(payloadFor("w2", types.EventOpened))
	q.Enqueue(payloadFor("w3", types.EventMinimized))

	q.Flush()

	assert.Equal(t, []string{"w1", "w2", "w3"}, caller.deliveredIDs())
	assert.Equal(t, 0, q.Len())
	for _, op := range caller.ops {
		assert.Equal(t, types.OpLogWindowLifecycle, op)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	caller := &scriptedCaller{}
	q := New(caller, Options{Capacity: 4})

	for i := 1; i <= 6; i++ {
		q.Enqueue(payloadFor(fmt.Sprintf("w%d", i), types.EventOpened))
	}

	assert.Equal(t, 4, q.Len())

	q.Flush()
	// The most recently enqueued payloads survive.
	assert.Equal(t, []string{"w3", "w4", "w5", "w6"}, caller.deliveredIDs())

	stats := q.Stats()
	assert.Equal(t, uint64(6), stats.Enqueued)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestDefaultCapacityBound(t *testing.T) {
	caller := &scriptedCaller{accept: func(types.LifecyclePayload) bool { return false }}
	q := New(caller, Options{})

	for i := 0; i < 300; i++ {
		q.Enqueue(payloadFor(fmt.Sprintf("w%d", i), types.EventOpened))
	}

	assert.Equal(t, DefaultCapacity, q.Len())
	assert.Equal(t, uint64(300-DefaultCapacity), q.Stats().Dropped)
}

func TestFlushReenqueuesFailedInOrder(t *testing.T) {
	reject := true
	caller := &scriptedCaller{accept: func(types.LifecyclePayload) bool { return !reject }}
	q := New(caller, Options{})

	q.Enqueue(payloadFor("w1", types.EventOpened))
	q.Enqueue(payloadFor("w2", types.EventActive))

	q.Flush()
	assert.Equal(t, 2, q.Len())
	assert.Empty(t, caller.deliveredIDs())

	reject = false
	q.Flush()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, []string{"w1", "w2"}, caller.deliveredIDs())
	assert.Equal(t, uint64(2), q.Stats().Requeued)
}

func TestFlushPartialFailureKeepsRelativeOrder(t *testing.T) {
	rejected := map[string]bool{"w2": true, "w4": true}
	caller := &scriptedCaller{accept: func(p types.LifecyclePayload) bool { return !rejected[p.WindowID] }}
	q := New(caller, Options{})

	for _, id := range []string{"w1", "w2", "w3", "w4"} {
		q.Enqueue(payloadFor(id, types.EventOpened))
	}

	q.Flush()
	assert.Equal(t, []string{"w1", "w3"}, caller.deliveredIDs())
	assert.Equal(t, 2, q.Len())

	rejected = map[string]bool{}
	q.Flush()
	assert.Equal(t, []string{"w1", "w3", "w2", "w4"}, caller.deliveredIDs())
}

func TestFailedFlushThenRecovery(t *testing.T) {
	attempts := 0
	caller := &scriptedCaller{accept: func(types.LifecyclePayload) bool {
		attempts++
		return attempts > 1
	}}
	q := New(caller, Options{})

	q.Enqueue(payloadFor("w1", types.EventClosed))

	q.Flush()
	assert.Equal(t, 1, q.Len(), "payload should remain queued after failed flush")

	q.Flush()
	assert.Equal(t, 0, q.Len(), "payload should be removed after successful flush")
	assert.Equal(t, uint64(1), q.Stats().Delivered)
}

func TestEnqueueDuringFlushOrdersAfterRequeued(t *testing.T) {
	var q *Queue
	first := true
	caller := &scriptedCaller{}
	caller.accept = func(p types.LifecyclePayload) bool {
		if first {
			first = false
			// A payload arriving mid-flush must sort after the
			// re-enqueued remainder.
			q.Enqueue(payloadFor("late", types.EventOpened))
			return false
		}
		return true
	}
	q = New(caller, Options{})

	q.Enqueue(payloadFor("early", types.EventOpened))

	q.Flush()
	require.Equal(t, 2, q.Len())

	q.Flush()
	assert.Equal(t, []string{"early", "late"}, caller.deliveredIDs())
}

func TestBackgroundFlushLoop(t *testing.T) {
	caller := &scriptedCaller{}
	q := New(caller, Options{FlushInterval: 10 * time.Millisecond})

	q.Start()
	defer q.Stop()

	q.Enqueue(payloadFor("w1", types.EventOpened))

	require.Eventually(t, func() bool {
		return q.Len() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"w1"}, caller.deliveredIDs())
}

func TestStopHaltsDelivery(t *testing.T) {
	caller := &scriptedCaller{}
	q := New(caller, Options{FlushInterval: 10 * time.Millisecond})

	q.Start()
	q.Stop()

	q.Enqueue(payloadFor("w1", types.EventOpened))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, q.Len())
	assert.Empty(t, caller.deliveredIDs())
}

func TestStopWithoutStart(t *testing.T) {
	q := New(&scriptedCaller{}, Options{})

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop should not block when the loop never started")
	}
}

func TestFlushEmptyQueueIsNoop(t *testing.T) {
	caller := &scriptedCaller{}
	q := New(caller, Options{})

	q.Flush()

	assert.Empty(t, caller.ops)
}
