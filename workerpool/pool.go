// Package workerpool provides a bounded pool of goroutines for serving
// accepted connections, used by the coordinator (spec: default 10 workers).
package workerpool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Task is a unit of work submitted to the pool.
type Task struct {
	ID string
	Fn func()
}

// Pool manages a fixed number of worker goroutines draining a task queue.
type Pool struct {
	name       string
	maxWorkers int
	taskQueue  chan Task
	logger     *zap.Logger
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopChan   chan struct{}

	completedTasks uint64
	failedTasks    uint64
	rejectedTasks  uint64
}

// New creates and starts a pool with maxWorkers goroutines and a task queue
// of the given depth.
func New(name string, maxWorkers, queueSize int, logger *zap.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = maxWorkers * 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		name:       name,
		maxWorkers: maxWorkers,
		taskQueue:  make(chan Task, queueSize),
		logger:     logger,
		stopChan:   make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started",
		zap.String("pool", p.name),
		zap.Int("max_workers", maxWorkers),
		zap.Int("queue_size", queueSize))

	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			// Run whatever is still queued before exiting.
			for {
				select {
				case task := <-p.taskQueue:
					p.execute(id, task)
				default:
					return
				}
			}
		case task := <-p.taskQueue:
			p.execute(id, task)
		}
	}
}

func (p *Pool) execute(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&p.failedTasks, 1)
			p.logger.Error("task panicked",
				zap.String("pool", p.name),
				zap.Int("worker_id", workerID),
				zap.String("task_id", task.ID),
				zap.Any("panic", r))
		}
	}()
	task.Fn()
	atomic.AddUint64(&p.completedTasks, 1)
}

// TrySubmit attempts to enqueue task without blocking. Returns false if the
// queue is full or the pool is stopped; callers are expected to run the
// task inline as a fallback in that case.
func (p *Pool) TrySubmit(task Task) bool {
	select {
	case <-p.stopChan:
		atomic.AddUint64(&p.rejectedTasks, 1)
		return false
	default:
	}

	select {
	case p.taskQueue <- task:
		return true
	default:
		atomic.AddUint64(&p.rejectedTasks, 1)
		return false
	}
}

// Stop signals all workers to finish their current task and every task
// still queued, then exit, and waits for them to drain.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.wg.Wait()
		p.logger.Info("worker pool stopped", zap.String("pool", p.name),
			zap.Uint64("completed", atomic.LoadUint64(&p.completedTasks)),
			zap.Uint64("failed", atomic.LoadUint64(&p.failedTasks)),
			zap.Uint64("rejected", atomic.LoadUint64(&p.rejectedTasks)))
	})
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Completed uint64
	Failed    uint64
	Rejected  uint64
}

// Stats returns a snapshot of the pool's task counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: atomic.LoadUint64(&p.completedTasks),
		Failed:    atomic.LoadUint64(&p.failedTasks),
		Rejected:  atomic.LoadUint64(&p.rejectedTasks),
	}
}
