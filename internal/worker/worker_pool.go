// ============================================================================
// Drone Dispatch Worker Pool
// ============================================================================
//
// Package: internal/worker
// File: worker_pool.go
// Purpose: Builds independent randomized schedules in parallel
//
// Usage:
//   pool := NewPool(n)          // buffer sized to the batch
//   pool.Start(workers)
//   for each task: pool.Submit(task)
//   for each task: pool.ReceiveResult()
//   pool.Stop()
//
// Concurrency:
//   Workers only read the shared Problem. Every task builds on its own
//   copies of warehouse and order state with its own random source, so
//   results depend on the task seed only, never on scheduling.
//
// ============================================================================

package worker

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPoolClosed     = errors.New("worker pool is closed")
	ErrPoolNotStarted = errors.New("worker pool not started")
)

type Pool struct {
	workers  []*Worker      // started workers
	taskCh   chan Task      // pending build tasks
	resultCh chan Result    // finished builds
	stopCh   chan struct{}  // closed by Stop
	wg       sync.WaitGroup // tracks running workers
	started  bool
	stopped  bool
	mu       sync.Mutex // guards started and stopped
}

// NewPool creates a pool whose task and result channels hold bufferSize
// entries each.
func NewPool(bufferSize int) *Pool {
	return &Pool{
		workers:  make([]*Worker, 0),
		taskCh:   make(chan Task, bufferSize),
		resultCh: make(chan Result, bufferSize),
		stopCh:   make(chan struct{}),
	}
}

func (p *Pool) Start(workerCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pool already started")
	}
	if workerCount <= 0 {
		return errors.New("worker count must be positive")
	}

	for i := 0; i < workerCount; i++ {
		worker := newWorker(i, p.taskCh, p.resultCh, p.stopCh)
		p.workers = append(p.workers, worker)

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run()
		}(worker)
	}

	p.started = true
	return nil
}

func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	taskCh := p.taskCh
	stopCh := p.stopCh
	p.mu.Unlock()

	select {
	case taskCh <- task:
		return nil
	case <-stopCh:
		return ErrPoolClosed
	}
}

func (p *Pool) ReceiveResult() (Result, error) {
	return p.ReceiveResultContext(context.Background())
}

// ReceiveResultContext waits for the next finished build, giving up when
// ctx is done or the pool stops.
func (p *Pool) ReceiveResultContext(ctx context.Context) (Result, error) {
	select {
	case result, ok := <-p.resultCh:
		if !ok {
			return Result{}, ErrPoolClosed
		}
		return result, nil
	case <-p.stopCh:
		return Result{}, ErrPoolClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop shuts the pool down and waits for every worker to exit. Calling it
// more than once, or before Start, is a no-op. The task channel is never
// closed, so a Submit racing with Stop sees ErrPoolClosed or a dropped
// task, never a send on a closed channel.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)

	p.wg.Wait()

	close(p.resultCh)
}

func (p *Pool) GetWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func (p *Pool) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
