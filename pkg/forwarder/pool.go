// Copyright 2025-2026 aturzone

package forwarder

import "sync"

// Pool is a bounded worker pool for fire-and-forget message processing. It
// replaces one-goroutine-per-message dispatch: concurrency is capped at the
// worker count and Submit blocks once the queue fills, so a slow downstream
// backpressures the polling loop instead of growing without bound. No
// ordering is guaranteed across submitted tasks.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func(), workers*8)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task, blocking while the queue is full. Submitting after
// Close panics.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for queued work to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
