package jobs

import (
	"context"
	"sync"

	"parkingapp/logs"
)

// LocalPool runs tasks on a fixed number of goroutines fed by a bounded queue.
type LocalPool struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup
}

func NewLocalPool(workers, queueSize int) *LocalPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &LocalPool{tasks: make(chan Task, queueSize), workers: workers}
}

// Dispatch enqueues without blocking; ErrQueueFull when the queue is at capacity.
func (p *LocalPool) Dispatch(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They stop when ctx is cancelled; queued tasks
// that were not picked up are dropped.
func (p *LocalPool) Start(ctx context.Context, exec Executor) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-p.tasks:
					exec.Execute(ctx, task)
				}
			}
		}()
	}
	logs.Logger.Infof("Local job pool started with %d workers", p.workers)
}

// Wait blocks until every worker has returned.
func (p *LocalPool) Wait() {
	p.wg.Wait()
}
