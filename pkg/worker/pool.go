package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jzx17/drainpool/pkg/queue"
	"github.com/jzx17/drainpool/pkg/types"
)

// pool states
const (
	poolStateOpen int32 = iota
	poolStateClosed
)

// PoolConfig defines configuration for a fixed worker pool
type PoolConfig struct {
	// Workers is the number of worker goroutines, fixed for the pool lifetime
	Workers int

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler receives task errors and recovered panics (optional)
	ErrorHandler types.ErrorHandler
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers: 10,
		Clock:   types.NewRealClock(),
	}
}

// Pool is a fixed-size worker pool with drain-guaranteed shutdown.
//
// Construction spawns every worker immediately; workers idle on the shared
// queue until work arrives. Submit hands a task to the queue and returns
// at once. Shutdown refuses further submissions, lets the workers drain
// everything already accepted, and joins them all before returning; tasks
// are never discarded.
//
// A pool that becomes unreachable without an explicit Shutdown is torn
// down by a runtime finalizer running the same close-and-join sequence, so
// worker goroutines cannot leak. Workers hold no reference back to the
// Pool, which is what lets the finalizer fire while they are still parked
// on the queue.
type Pool struct {
	config  *PoolConfig
	queue   *queue.WorkQueue
	workers []*Worker

	// wg is allocated separately so worker goroutines can join through it
	// without keeping the Pool itself reachable
	wg *sync.WaitGroup

	state          int32 // atomic, poolStateOpen or poolStateClosed
	closeOnce      sync.Once
	totalSubmitted int64
}

var _ types.WorkerPool = (*Pool)(nil)

// NewPool creates a pool and starts its workers. It never blocks; the only
// failure mode is an invalid configuration.
func NewPool(config *PoolConfig) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	if config.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", config.Workers)
	}

	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}

	q := queue.NewWorkQueue()
	pool := &Pool{
		config:  config,
		queue:   q,
		workers: make([]*Worker, config.Workers),
		wg:      new(sync.WaitGroup),
	}

	for i := 0; i < config.Workers; i++ {
		w := NewWorkerWithClock(i, q, config.Clock)
		if config.ErrorHandler != nil {
			w.SetErrorHandler(config.ErrorHandler)
		}
		pool.workers[i] = w

		pool.wg.Add(1)
		go func(w *Worker, wg *sync.WaitGroup) {
			defer wg.Done()
			w.Run(context.Background())
		}(w, pool.wg)
	}

	// implicit teardown: a pool dropped without Shutdown still closes the
	// queue and joins its workers
	runtime.SetFinalizer(pool, (*Pool).Shutdown)

	return pool, nil
}

// Submit enqueues a task for execution by some idle worker and returns
// immediately; the queue is unbounded so Submit never blocks. No handle is
// returned and an enqueued task cannot be withdrawn. After Shutdown has
// begun, Submit returns ErrPoolClosed.
func (p *Pool) Submit(task types.Task) error {
	if task == nil {
		return types.ErrNilTask
	}

	if atomic.LoadInt32(&p.state) == poolStateClosed {
		return types.ErrPoolClosed
	}

	if err := p.queue.Send(task); err != nil {
		// Shutdown can begin between the state check and the send; that
		// race is the expected closed condition. A closed queue under an
		// open pool means pool state is corrupted.
		if atomic.LoadInt32(&p.state) == poolStateClosed {
			return types.ErrPoolClosed
		}
		panic(fmt.Sprintf("drainpool: work queue closed while pool open: %v", err))
	}

	atomic.AddInt64(&p.totalSubmitted, 1)
	return nil
}

// SubmitFunc wraps fn in a BasicTask and submits it
func (p *Pool) SubmitFunc(fn func(ctx context.Context) error) error {
	return p.Submit(NewBasicTask(fn))
}

// Shutdown closes the pool. It marks the pool closed, closes the work
// queue and blocks until every worker has drained the queue and exited.
// Every task accepted before Shutdown was invoked runs to completion
// before Shutdown returns. Idempotent: concurrent and repeated calls all
// block until the drain finishes, then return.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		atomic.StoreInt32(&p.state, poolStateClosed)
		p.queue.Close()
	})

	p.wg.Wait()
}

// Size returns the worker pool size
func (p *Pool) Size() int {
	return p.config.Workers
}

// IsClosed checks if shutdown has begun
func (p *Pool) IsClosed() bool {
	return atomic.LoadInt32(&p.state) == poolStateClosed
}

// QueueLength gets the current number of queued tasks
func (p *Pool) QueueLength() int {
	return p.queue.Len()
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() types.PoolStats {
	var active int
	var completed, failed int64
	for _, w := range p.workers {
		ws := w.Stats()
		if ws.IsActive() {
			active++
		}
		completed += ws.TotalProcessed
		failed += ws.TotalFailed
	}

	return types.PoolStats{
		PoolSize:       p.config.Workers,
		ActiveWorkers:  active,
		QueuedTasks:    p.queue.Len(),
		TotalSubmitted: atomic.LoadInt64(&p.totalSubmitted),
		TotalCompleted: completed,
		TotalFailed:    failed,
	}
}

// GetWorkerStats gets statistics of all Workers
func (p *Pool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}
