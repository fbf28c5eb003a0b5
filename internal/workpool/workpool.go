// Package workpool runs image derivative tasks on a bounded set of workers.
package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("workpool: closed")

// Task is one unit of work. It receives only the pool context.
type Task func(ctx context.Context) error

// Pool is a fixed-size worker pool with a join barrier.
//
// Submit never blocks once the pool context is canceled: queued and new
// tasks are abandoned and Wait returns the context error.
type Pool struct {
	ctx   context.Context
	size  int
	tasks chan Task

	workers sync.WaitGroup
	pending sync.WaitGroup

	// sendMu guards closed and the tasks channel against Close racing a send.
	sendMu sync.RWMutex
	closed bool

	mu   sync.Mutex
	errs []error
}

// ResolveSize returns the worker count: one when parallel processing is
// disabled, GOMAXPROCS otherwise. GOMAXPROCS follows the container CPU quota
// once automaxprocs has run at startup.
func ResolveSize(parallel bool) int {
	if !parallel {
		return 1
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

// New starts size workers bound to ctx. Sizes below one are raised to one.
func New(ctx context.Context, size int) *Pool {
	size = max(size, 1)
	p := &Pool{
		ctx:   ctx,
		size:  size,
		tasks: make(chan Task, size*4),
	}
	p.workers.Add(size)
	for range size {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.workers.Done()
	for task := range p.tasks {
		if err := p.ctx.Err(); err != nil {
			p.pending.Done()
			continue
		}
		if err := task(p.ctx); err != nil {
			p.record(err)
		}
		p.pending.Done()
	}
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// Submit queues task. It blocks while the queue is full unless the pool
// context is canceled, in which case the task is dropped.
func (p *Pool) Submit(task func(ctx context.Context) error) {
	if task == nil {
		return
	}
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed {
		p.record(ErrClosed)
		return
	}
	p.pending.Add(1)
	select {
	case p.tasks <- task:
	case <-p.ctx.Done():
		p.pending.Done()
	}
}

// Wait blocks until every submitted task has finished and returns their
// joined errors. When the pool context is canceled first, Wait returns
// without waiting for in-flight tasks.
func (p *Pool) Wait() error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-p.ctx.Done():
		return p.ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := errors.Join(p.errs...)
	p.errs = nil
	return err
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Close stops accepting tasks and waits for the workers to exit. It is safe
// to call more than once.
func (p *Pool) Close() {
	p.sendMu.Lock()
	if p.closed {
		p.sendMu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.sendMu.Unlock()

	p.workers.Wait()
}
