// Package queue provides the unbounded task conduit between submitters and workers
package queue

import (
	"sync"

	"github.com/jzx17/drainpool/pkg/types"
)

// WorkQueue is an unbounded multi-producer multi-consumer FIFO of tasks.
//
// Send never blocks. Receive blocks the calling goroutine until a task is
// available or the queue is closed and fully drained. Buffered channels
// cannot express this contract (their send blocks at capacity), so the
// queue is a mutex-and-condition guarded deque.
//
// The queue provides all synchronization between producers and consumers;
// callers need no external locking.
type WorkQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []types.Task
	head     int
	closed   bool
}

// NewWorkQueue creates an empty open queue
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Send enqueues a task and wakes one waiting consumer. It never blocks.
// After Close it returns ErrQueueClosed and discards nothing.
func (q *WorkQueue) Send(task types.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrQueueClosed
	}

	q.buf = append(q.buf, task)
	q.notEmpty.Signal()
	return nil
}

// Receive dequeues the oldest task, blocking while the queue is empty and
// open. Once the queue is closed, buffered tasks are still delivered in
// order; only after the buffer drains does Receive report ErrQueueClosed.
func (q *WorkQueue) Receive() (types.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.buf) && !q.closed {
		q.notEmpty.Wait()
	}

	if q.head == len(q.buf) {
		return nil, types.ErrQueueClosed
	}

	task := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++

	// reclaim the slice once fully consumed
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}

	return task, nil
}

// Close marks the queue closed and wakes every waiting consumer.
// Idempotent. Tasks already buffered remain receivable.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}

// Len returns the number of buffered tasks
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.head
}

// IsClosed checks if the queue is closed
func (q *WorkQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
