package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Task is one unit of post-capture work (encode, save, clipboard write).
// It runs on a worker goroutine and must honor ctx.
type Task func(ctx context.Context) error

// DoneCallback is invoked when a task finishes (from a worker goroutine).
// The event loop should pass a closure that posts back into the loop safely.
type DoneCallback func(err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict
// back-pressure): while a capture is being delivered, new submissions are
// rejected instead of piling up.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	done DoneCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: Starting %s", j.name)
				err := runWithContext(j.ctx, j.task)
				log.Printf("Worker: %s completed, err=%v", j.name, err)
				if j.done != nil {
					j.done(err)
				}
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, done DoneCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, done: done}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext runs the task with a deadline-aware path.
func runWithContext(ctx context.Context, task Task) error {
	// Fast path: no deadline, run inline.
	if _, ok := ctx.Deadline(); !ok {
		return task(ctx)
	}
	// Deadline-aware shim: run in a sub-goroutine, respect ctx.Done().
	errCh := make(chan error, 1)
	go func() {
		errCh <- task(ctx)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// The task keeps running in the background; the caller sees the timeout.
		return ctx.Err()
	}
}
