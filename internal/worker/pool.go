// Package worker schedules pipeline sessions to run after the accepting
// request has returned. Once submitted, a task runs to completion; there is
// no cancellation.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Queue is the scheduling port used by the HTTP front door. Submit reports
// whether the task was accepted.
type Queue interface {
	Submit(t Task) bool
}

// Pool drains a buffered task queue with a fixed set of workers. Workers
// receive a background context: sessions outlive the request that started
// them and cannot be aborted.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a pool with the given worker count and queue backlog and
// starts its workers.
func NewPool(workers, backlog int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if backlog <= 0 {
		backlog = 64
	}
	p := &Pool{tasks: make(chan Task, backlog)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.runOne(task)
	}
}

// runOne executes a task and contains its panics: one broken session must
// never take a worker down.
func (p *Pool) runOne(task Task) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("worker task panicked", zap.Any("panic", r))
		}
	}()
	task(context.Background())
}

// Submit enqueues a task. Returns false when the pool is stopped or the
// backlog is full; the caller decides how to surface that.
func (p *Pool) Submit(t Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// Stop closes the intake and waits for in-flight and queued tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// SyncQueue runs every task inline. Test implementation of Queue that makes
// the ack-before-callback ordering deterministic.
type SyncQueue struct{}

func (SyncQueue) Submit(t Task) bool {
	t(context.Background())
	return true
}
