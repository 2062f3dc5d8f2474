// Package parallel provides a generic worker pool for fanning independent
// jobs out over a bounded number of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// TaskTimeout bounds each task. 0 means no limit.
	TaskTimeout time.Duration

	// CollectMetrics enables collection of execution metrics.
	CollectMetrics bool

	// OnProgress, when set, is called after each task with the number of
	// finished tasks and the total. Calls may come from any worker.
	OnProgress func(done, total int)
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified per-task timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.TaskTimeout = d
	return c
}

// WithMetrics returns a new config with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// WithProgress returns a new config reporting progress to fn.
func (c PoolConfig) WithProgress(fn func(done, total int)) PoolConfig {
	c.OnProgress = fn
	return c
}

// PoolMetrics holds execution statistics.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
	MinTaskTime    time.Duration
}

// TaskResult holds the result of a task execution.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool runs a function over a list of inputs in parallel.
type WorkerPool[T any, R any] struct {
	config  PoolConfig
	metrics PoolMetrics
	mu      sync.Mutex
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc runs fn for every input and returns one result per input, in
// input order. Inputs not started before ctx is done get ctx.Err() as
// their error.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	start := time.Now()
	results := make([]TaskResult[T, R], len(inputs))
	for i, in := range inputs {
		results[i].Input = in
	}

	indexes := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < min(p.config.MaxWorkers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = p.run(ctx, inputs[idx], fn)
				if p.config.OnProgress != nil {
					p.config.OnProgress(int(done.Add(1)), len(inputs))
				}
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		results[i].Error = ctx.Err()
	}

	if p.config.CollectMetrics {
		p.mu.Lock()
		p.metrics.TotalDuration += time.Since(start)
		p.mu.Unlock()
	}

	return results
}

func (p *WorkerPool[T, R]) run(ctx context.Context, input T, fn func(ctx context.Context, input T) (R, error)) TaskResult[T, R] {
	taskCtx := ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	begin := time.Now()
	result, err := fn(taskCtx, input)
	d := time.Since(begin)

	if p.config.CollectMetrics {
		p.updateMetrics(d, err)
	}

	return TaskResult[T, R]{Input: input, Result: result, Error: err, Duration: d}
}

func (p *WorkerPool[T, R]) updateMetrics(d time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}

	if d > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = d
	}
	if p.metrics.TotalTasks == 1 || d < p.metrics.MinTaskTime {
		p.metrics.MinTaskTime = d
	}
}

// Metrics returns the current execution metrics.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// Errors returns the errors of the failed results.
func Errors[T any, R any](results []TaskResult[T, R]) []error {
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errs
}
