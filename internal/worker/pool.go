package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/martinsuchenak/edgetag/internal/log"
)

var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrQueueFull   = errors.New("worker queue full")
)

// WorkerPool runs queued tasks on a fixed number of goroutines
type WorkerPool struct {
	maxWorkers int
	tasks      chan Task
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	mu      sync.RWMutex
	stopped bool
}

// Task is a unit of work. Result, when set, receives the handler's error.
// Dropped is called instead of Handler when the pool stops before the task
// started.
type Task struct {
	ID      string
	Handler func(context.Context) error
	Result  chan error
	Dropped func(err error)
}

// NewWorkerPool creates a pool. Values below one fall back to a single
// worker and a queue of one.
func NewWorkerPool(maxWorkers, queueSize int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		maxWorkers: maxWorkers,
		tasks:      make(chan Task, queueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the worker goroutines
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Info("Worker pool started", "workers", p.maxWorkers, "queue", cap(p.tasks))
}

// Stop rejects new tasks, cancels the running ones and waits for the
// workers to exit. Queued tasks that never started are dropped, including
// those left behind when the pool was never started.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	for task := range p.tasks {
		p.drop(-1, task)
	}
	log.Info("Worker pool stopped")
}

// Submit queues a task without blocking
func (p *WorkerPool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if p.ctx.Err() != nil {
			p.drop(id, task)
			continue
		}

		log.Debug("Worker executing task", "worker_id", id, "task_id", task.ID)

		err := task.Handler(p.ctx)
		if err != nil {
			log.Debug("Task returned error", "worker_id", id, "task_id", task.ID, "error", err)
		}
		if task.Result != nil {
			task.Result <- err
		}
	}
}

func (p *WorkerPool) drop(id int, task Task) {
	log.Warn("Dropping queued task", "worker_id", id, "task_id", task.ID)
	if task.Dropped != nil {
		task.Dropped(ErrPoolStopped)
	}
	if task.Result != nil {
		task.Result <- ErrPoolStopped
	}
}
