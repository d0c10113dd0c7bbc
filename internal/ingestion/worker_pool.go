package ingestion

import (
	"context"
	"log/slog"
	"sync"
)

// Task is one unit of scrape work.
type Task func(ctx context.Context) error

// WorkerPool runs tasks on a fixed number of goroutines.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
	closed      bool
	closeMux    sync.Mutex
}

// NewWorkerPool creates a pool whose tasks observe ctx.
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
		logger:      logger,
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Debug("worker_pool_started", "workers", wp.workerCount)
}

// Submit queues a task, or drops it if the pool is shutting down.
func (wp *WorkerPool) Submit(task Task) bool {
	select {
	case wp.taskQueue <- task:
		return true
	case <-wp.ctx.Done():
		wp.logger.Warn("worker_pool_task_dropped", "reason", wp.ctx.Err())
		return false
	}
}

// Wait closes the queue and blocks until every queued task has finished.
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	wp.cancel()
}

func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("worker_stopped", "worker", id, "reason", wp.ctx.Err())
			return
		default:
		}

		if err := task(wp.ctx); err != nil {
			wp.logger.Debug("worker_task_failed", "worker", id, "error", err)
		}
	}
}
