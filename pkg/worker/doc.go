/*
Package worker provides a fixed-size worker pool with drain-guaranteed
graceful shutdown.

# Overview

A Pool owns a fixed set of long-lived worker goroutines that consume tasks
from a shared unbounded queue and run them to completion:

  - Fixed number of workers, set at construction
  - Unbounded task queue: Submit never blocks
  - At most one task in flight per worker, capping concurrency exactly at
    the pool size
  - Graceful shutdown: every task accepted before Shutdown runs to
    completion before Shutdown returns; tasks are never discarded
  - Implicit teardown via finalizer if a pool is dropped without Shutdown

# Core Components

Pool construction creates the shared queue, spawns all workers and returns
immediately. Each Worker loops on the queue: receive a task, execute it
synchronously, receive again. Closing the queue during shutdown is the
only loop exit; the workers first drain whatever is buffered.

# Task Execution and Failure Policy

Tasks are opaque to the pool: no priorities, no ordering guarantees across
submitters, no cancellation once enqueued, no result observed by the pool.
Each task runs under panic recovery. A task that returns an error or
panics is counted as failed and reported to the pool's ErrorHandler, and
the worker loop continues; one bad task never removes a worker from the
pool or blocks delivery of other tasks.

Tasks must not retain pointers that become invalid after the submitting
call returns. Go closures capture by reference onto the heap, which
satisfies this automatically.

# Usage

	pool, err := worker.NewPool(&worker.PoolConfig{Workers: 4})
	if err != nil {
		log.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		i := i
		err := pool.SubmitFunc(func(ctx context.Context) error {
			fmt.Println("processing item", i)
			return nil
		})
		if err != nil {
			log.Printf("submit failed: %v", err)
		}
	}

	pool.Shutdown() // blocks until all 8 tasks have run

Submitting after Shutdown yields types.ErrPoolClosed:

	if err := pool.Submit(task); errors.Is(err, types.ErrPoolClosed) {
		// pool is draining or already closed
	}

# Concurrency Safety

Submit, Shutdown and the statistics accessors are safe for concurrent use
from any number of goroutines. The queue is the only shared mutable state
between submitters and workers and carries its own synchronization; the
pool holds no additional locks around it.
*/
package worker
