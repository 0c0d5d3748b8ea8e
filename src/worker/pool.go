package worker

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Job is one unit of blocking work, typically a completion request.
type Job func(ctx context.Context) (string, error)

// ResultCallback is invoked on job completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(text string, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	log  *zap.Logger
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

type job struct {
	ctx context.Context
	run Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{log: log, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for j := range p.jobs {
				if err := j.ctx.Err(); err != nil {
					p.log.Debug("worker: job cancelled before start", zap.Int("worker", id))
					j.cb("", err)
					continue
				}
				p.log.Debug("worker: job started", zap.Int("worker", id))
				text, err := p.run(j)
				p.log.Debug("worker: job finished", zap.Int("worker", id), zap.Int("chars", len(text)), zap.Error(err))
				j.cb(text, err)
			}
		}(i)
	}
}

type result struct {
	text string
	err  error
}

// run waits for the job or its context, whichever ends first. A cancelled
// job frees the worker at once; its late result is discarded.
func (p *Pool) run(j job) (string, error) {
	done := make(chan result, 1)
	go func() {
		text, err := j.run(j.ctx)
		done <- result{text, err}
	}()
	select {
	case r := <-done:
		return r.text, r.err
	case <-j.ctx.Done():
		return "", j.ctx.Err()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, run Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, run: run, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. Safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
