// Package workerpool provides the single, uniform task pool this module
// uses for every form of concurrency it needs: element-wise fan-out across
// a ciphertext batch, and the permutation-proof/shuffle-proof join in the
// one-shot mix operation (SPEC_FULL.md §5). The REDESIGN FLAG "two
// concurrency idioms collapsed" is addressed by routing both through this
// one type instead of a data-parallel collection facility plus a separate
// future-join.
//
// Adapted from the work-stealing Pool in the reference pack's threshold
// signature library (pkg/pool): a fixed set of goroutines pull commands off
// a shared channel, and Parallelize(n, f) preserves result[i] == f(i) for
// every i regardless of completion order.
package workerpool

import (
	"context"
	"runtime"
	"sync/atomic"
)

type command struct {
	i       int
	f       func(int) (interface{}, error)
	ctr     *int64
	results []interface{}
	errs    []error
	done    chan<- int
}

func worker(commands <-chan command) {
	for c := range commands {
		res, err := c.f(c.i)
		c.results[c.i] = res
		c.errs[c.i] = err
		atomic.AddInt64(c.ctr, -1)
		c.done <- c.i
	}
}

// Pool is a fixed-size pool of worker goroutines. The zero value is not
// usable; construct with New. A nil *Pool is valid and runs work on the
// calling goroutine instead, matching the reference implementation's
// "works with a nil receiver" contract.
type Pool struct {
	commands    chan command
	workerCount int
}

// New creates a pool with the given number of workers. count <= 0 uses
// runtime.NumCPU().
func New(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		commands:    make(chan command),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.commands)
	}
	return p
}

// TearDown stops all worker goroutines. Safe to call once.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	close(p.commands)
}

// Parallelize calls f(0..n-1), preserving index order in the result slice,
// and aborts early (returning the first error observed) if ctx is
// cancelled or any f(i) returns an error. On cancellation no further
// commands are dispatched, but in-flight workers are allowed to finish
// their current item rather than being forcibly killed - there is no
// shared mutable state left dangling by doing so.
func (p *Pool) Parallelize(ctx context.Context, n int, f func(int) (interface{}, error)) ([]interface{}, error) {
	if n == 0 {
		return nil, nil
	}
	if p == nil {
		return parallelizeAlone(ctx, n, f)
	}

	results := make([]interface{}, n)
	errs := make([]error, n)
	ctr := int64(n)
	// Each call has its own completion channel, buffered so that workers
	// finishing after an early return never block.
	done := make(chan int, n)

	go func() {
		for i := 0; i < n; i++ {
			select {
			case p.commands <- command{i: i, f: f, ctr: &ctr, results: results, errs: errs, done: done}:
			case <-ctx.Done():
				return
			}
		}
	}()

	remaining := n
	for remaining > 0 {
		select {
		case i := <-done:
			if errs[i] != nil {
				return nil, errs[i]
			}
			remaining--
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return results, nil
}

func parallelizeAlone(ctx context.Context, n int, f func(int) (interface{}, error)) ([]interface{}, error) {
	results := make([]interface{}, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := f(i)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
