package worker

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/drainpool/internal/testutils"
	"github.com/jzx17/drainpool/pkg/types"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name        string
		config      *PoolConfig
		expectError bool
		expectSize  int
	}{
		{
			name:       "nil config should use default",
			config:     nil,
			expectSize: 10,
		},
		{
			name:       "valid config",
			config:     &PoolConfig{Workers: 4},
			expectSize: 4,
		},
		{
			name:        "zero workers should error",
			config:      &PoolConfig{Workers: 0},
			expectError: true,
		},
		{
			name:        "negative workers should error",
			config:      &PoolConfig{Workers: -1},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(tt.config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, pool)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, pool)
			assert.Equal(t, tt.expectSize, pool.Size())
			assert.False(t, pool.IsClosed())
			pool.Shutdown()
		})
	}
}

// Eight tasks on four workers, each recording its own index: after
// Shutdown the recorded set must equal the submitted set exactly.
func TestPool_DrainDeliversEveryTaskExactlyOnce(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 4})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []int

	for i := 0; i < 8; i++ {
		i := i
		err := pool.SubmitFunc(func(ctx context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	pool.Shutdown()

	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)
}

// Eleven tasks on two workers, each sending its index over a channel:
// after the drain the received sum must be 55.
func TestPool_DrainedResultsSum(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 2})
	require.NoError(t, err)

	results := make(chan int, 11)
	for i := 0; i <= 10; i++ {
		i := i
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			results <- i
			return nil
		}))
	}

	pool.Shutdown()
	close(results)

	sum := 0
	for v := range results {
		sum += v
	}
	assert.Equal(t, 55, sum)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 2})
	require.NoError(t, err)

	pool.Shutdown()
	assert.True(t, pool.IsClosed())

	err = pool.Submit(NewBasicTask(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, err, types.ErrPoolClosed)

	err = pool.SubmitFunc(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, types.ErrPoolClosed)
}

func TestPool_SubmitNilTask(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 1})
	require.NoError(t, err)
	defer pool.Shutdown()

	err = pool.Submit(nil)
	assert.ErrorIs(t, err, types.ErrNilTask)
}

// The number of simultaneously executing tasks must never exceed the
// worker count.
func TestPool_ConcurrencyBound(t *testing.T) {
	const workers = 4
	const tasks = 64

	pool, err := NewPool(&PoolConfig{Workers: workers})
	require.NoError(t, err)

	var inFlight, peak int64
	for i := 0; i < tasks; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			cur := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return nil
		}))
	}

	pool.Shutdown()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(workers))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(0))
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	t.Run("sequential", func(t *testing.T) {
		pool, err := NewPool(&PoolConfig{Workers: 2})
		require.NoError(t, err)

		pool.Shutdown()
		pool.Shutdown()
		assert.True(t, pool.IsClosed())
	})

	t.Run("concurrent", func(t *testing.T) {
		pool, err := NewPool(&PoolConfig{Workers: 2})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pool.Shutdown()
			}()
		}

		require.True(t, testutils.WaitTimeout(&wg, time.Second),
			"concurrent Shutdown calls did not all return")
	})
}

func TestPool_ShutdownEmptyReturnsPromptly(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 8})
	require.NoError(t, err)

	start := time.Now()
	pool.Shutdown()

	assert.Less(t, time.Since(start), time.Second)
}

func TestPool_TaskFailuresReported(t *testing.T) {
	recorder := &testutils.ErrorRecorder{}
	pool, err := NewPool(&PoolConfig{
		Workers:      2,
		ErrorHandler: recorder.Record,
	})
	require.NoError(t, err)

	const failures = 5
	for i := 0; i < failures; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			return fmt.Errorf("task failed")
		}))
	}
	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		return nil
	}))

	pool.Shutdown()

	assert.Equal(t, failures, recorder.Len())

	stats := pool.Stats()
	assert.Equal(t, int64(failures), stats.TotalFailed)
	assert.Equal(t, int64(1), stats.TotalCompleted)
}

// Panicking tasks must not shrink the pool: submit more panics than there
// are workers, then verify normal tasks still all run.
func TestPool_PanicsDoNotShrinkPool(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 2})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			panic("task panic")
		}))
	}

	var wg sync.WaitGroup
	const normal = 10
	var executed int64
	for i := 0; i < normal; i++ {
		wg.Add(1)
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt64(&executed, 1)
			return nil
		}))
	}

	require.True(t, testutils.WaitTimeout(&wg, 2*time.Second),
		"pool lost workers to panicking tasks")
	assert.Equal(t, int64(normal), atomic.LoadInt64(&executed))

	pool.Shutdown()
}

func TestPool_Stats(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 3})
	require.NoError(t, err)

	const tasks = 12
	for i := 0; i < tasks; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			return nil
		}))
	}

	pool.Shutdown()

	stats := pool.Stats()
	assert.Equal(t, 3, stats.PoolSize)
	assert.Equal(t, 0, stats.ActiveWorkers)
	assert.Equal(t, 0, stats.QueuedTasks)
	assert.Equal(t, int64(tasks), stats.TotalSubmitted)
	assert.Equal(t, int64(tasks), stats.TotalCompleted)
	assert.Equal(t, int64(0), stats.TotalFailed)
}

func TestPool_GetWorkerStats(t *testing.T) {
	pool, err := NewPool(&PoolConfig{Workers: 3})
	require.NoError(t, err)

	const tasks = 9
	for i := 0; i < tasks; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			return nil
		}))
	}

	pool.Shutdown()

	workerStats := pool.GetWorkerStats()
	require.Len(t, workerStats, 3)

	var total int64
	for _, ws := range workerStats {
		assert.Equal(t, WorkerStateStopped, ws.State)
		total += ws.TotalProcessed
	}
	assert.Equal(t, int64(tasks), total)
}

// A pool dropped without Shutdown must still be torn down: the finalizer
// closes the queue and the workers exit.
func TestPool_ImplicitTeardown(t *testing.T) {
	done := func() []<-chan struct{} {
		pool, err := NewPool(&PoolConfig{Workers: 2})
		require.NoError(t, err)

		chans := make([]<-chan struct{}, 0, len(pool.workers))
		for _, w := range pool.workers {
			chans = append(chans, w.DoneChannel())
		}
		return chans
	}()

	deadline := time.After(5 * time.Second)
	for _, ch := range done {
		for {
			runtime.GC()
			select {
			case <-ch:
			case <-time.After(10 * time.Millisecond):
				select {
				case <-deadline:
					t.Fatal("workers were not joined after the pool became unreachable")
				default:
				}
				continue
			}
			break
		}
	}
}

// Benchmark tests
func BenchmarkPool_Submit(b *testing.B) {
	pool, err := NewPool(&PoolConfig{Workers: 10})
	require.NoError(b, err)
	defer pool.Shutdown()

	task := NewBasicTask(func(ctx context.Context) error {
		return nil
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = pool.Submit(task)
		}
	})
}

func BenchmarkPool_SubmitAndExecute(b *testing.B) {
	pool, err := NewPool(&PoolConfig{Workers: 10})
	require.NoError(b, err)
	defer pool.Shutdown()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var wg sync.WaitGroup
			wg.Add(1)
			task := NewBasicTask(func(ctx context.Context) error {
				wg.Done()
				return nil
			})
			_ = pool.Submit(task)
			wg.Wait()
		}
	})
}
