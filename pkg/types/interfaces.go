// Package types defines the core interfaces and types of the pool library
package types

import (
	"context"
)

// Task defines the task interface.
//
// A task is a single-execution unit of work. It is handed off to a worker
// goroutine and executed there exactly once, synchronously from start to
// completion. Any data a task captures must remain valid after the
// submitting call returns; heap-allocated captures of a Go closure satisfy
// this automatically.
type Task interface {
	// Execute executes the task
	Execute(ctx context.Context) error

	// ID returns the task ID (for tracking only)
	ID() string
}

// WorkerPool defines the worker pool interface
type WorkerPool interface {
	// Submit enqueues a task for execution by some idle worker.
	// It never blocks; after shutdown has begun it returns ErrPoolClosed.
	Submit(task Task) error

	// Shutdown refuses further submissions, waits until every task
	// accepted so far has run to completion, and joins all workers.
	// Idempotent and safe for concurrent use.
	Shutdown()

	// Size returns the number of workers in the pool
	Size() int

	// Stats returns worker pool statistics
	Stats() PoolStats
}

// PoolStats defines basic statistics for worker pools
type PoolStats struct {
	// PoolSize is the number of workers
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueuedTasks is the number of tasks waiting in the queue
	QueuedTasks int

	// TotalSubmitted is the number of tasks accepted by Submit
	TotalSubmitted int64

	// TotalCompleted is the number of tasks that ran without error
	TotalCompleted int64

	// TotalFailed is the number of tasks that returned an error or panicked
	TotalFailed int64
}

// ErrorHandler defines an error handling function invoked for task failures
type ErrorHandler func(error) error
