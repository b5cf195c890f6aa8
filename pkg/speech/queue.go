package speech

import (
	"context"
	"sync"
)

// DefaultQueueCapacity bounds pending utterances.
const DefaultQueueCapacity = 50

// Queue is a bounded FIFO of utterances shared by the frame loop (producer)
// and the Dispatcher (consumer). Push never blocks; when full, the oldest
// item is evicted unless the push is forced, in which case the new item is
// dropped.
type Queue struct {
	mu   sync.Mutex
	buf  []string
	head int
	size int

	// notify holds at most one wakeup for a blocked Pop.
	notify chan struct{}
}

// NewQueue creates a queue. capacity < 1 uses DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		buf:    make([]string, capacity),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues text. evicted reports that the oldest item was dropped to
// make room; accepted is false only for a forced push onto a full queue.
func (q *Queue) Push(text string, force bool) (evicted, accepted bool) {
	q.mu.Lock()
	if q.size == len(q.buf) {
		if force {
			q.mu.Unlock()
			return false, false
		}
		q.buf[q.head] = ""
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		evicted = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = text
	q.size++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return evicted, true
}

// TryPop removes the oldest item without blocking.
func (q *Queue) TryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return "", false
	}
	text := q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return text, true
}

// Pop blocks until an item is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	for {
		if text, ok := q.TryPop(); ok {
			return text, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		}
	}
}

// Drain removes and returns every item currently queued, oldest first.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, q.size)
	for q.size > 0 {
		out = append(out, q.buf[q.head])
		q.buf[q.head] = ""
		q.head = (q.head + 1) % len(q.buf)
		q.size--
	}
	return out
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue bound.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Snapshot returns the pending items, oldest first, without removing them.
func (q *Queue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, q.size)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}
