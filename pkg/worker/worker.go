package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/drainpool/pkg/queue"
	"github.com/jzx17/drainpool/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents a worker waiting for a task
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents a worker executing a task
	WorkerStateWorking
	// WorkerStateStopped represents a worker that has exited its loop.
	// The state is terminal; a stopped worker never re-enters the loop.
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker represents a single worker goroutine bound to a shared work
// queue. It loops receiving and executing tasks, one at a time, until the
// queue reports closure. A worker holds at most one task in flight, so a
// pool of N workers runs at most N tasks simultaneously.
type Worker struct {
	id    int
	state int32 // atomic state
	queue *queue.WorkQueue
	done  chan struct{}

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastTaskTime   int64 // Unix nanosecond timestamp

	// error handling
	errorHandler types.ErrorHandler

	// time operations
	clock types.Clock

	// synchronization
	mu sync.RWMutex
}

// NewWorker creates a new Worker with default real clock
func NewWorker(id int, q *queue.WorkQueue) *Worker {
	return NewWorkerWithClock(id, q, types.NewRealClock())
}

// NewWorkerWithClock creates a new Worker with specified clock
func NewWorkerWithClock(id int, q *queue.WorkQueue, clock types.Clock) *Worker {
	if clock == nil {
		clock = types.NewRealClock()
	}

	return &Worker{
		id:    id,
		state: int32(WorkerStateIdle),
		queue: q,
		done:  make(chan struct{}),
		clock: clock,
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// SetErrorHandler sets the error handler
func (w *Worker) SetErrorHandler(handler types.ErrorHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorHandler = handler
}

// Run is the worker loop. It receives and executes tasks until the queue
// is closed and drained, then transitions to WorkerStateStopped and
// returns. A task failure is absorbed by processTask, so only queue
// closure ends the loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))

	for {
		task, err := w.queue.Receive()
		if err != nil {
			return
		}
		w.processTask(ctx, task)
	}
}

// DoneChannel returns a channel closed when the worker loop exits
func (w *Worker) DoneChannel() <-chan struct{} {
	return w.done
}

// processTask processes a single task
func (w *Worker) processTask(ctx context.Context, task types.Task) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	startTime := w.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	err := w.executeTask(ctx, task)

	if err != nil {
		atomic.AddInt64(&w.totalFailed, 1)
		w.handleError(err)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}
}

// executeTask executes a task with panic recovery. A panic inside a task
// body is converted to a TaskError carrying the stack trace instead of
// tearing down the worker goroutine, so one bad task does not shrink the
// pool's concurrency.
func (w *Worker) executeTask(ctx context.Context, task types.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			switch v := r.(type) {
			case error:
				err = types.NewTaskError(task.ID(), v)
			default:
				err = types.NewTaskError(task.ID(), fmt.Errorf("panic: %v", v))
			}

			if te, ok := err.(*types.TaskError); ok {
				te.WithContext("stack_trace", string(buf[:n]))
				te.WithContext("worker_id", w.id)
			}
		}
	}()

	return task.Execute(ctx)
}

// handleError reports a task failure to the configured handler
func (w *Worker) handleError(err error) {
	w.mu.RLock()
	handler := w.errorHandler
	w.mu.RUnlock()

	if handler != nil {
		// a non-nil return from the handler is not propagated further;
		// the failure stays local to the task
		_ = handler(err)
	}
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		LastTaskTime:   time.Unix(0, atomic.LoadInt64(&w.lastTaskTime)),
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if the Worker is executing a task
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}
