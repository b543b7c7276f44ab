// Package pool provides the bounded worker pool that fans document lines
// out across goroutines.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/metrics"
)

// DefaultWorkers is the default pool width.
const DefaultWorkers = 32

var (
	// ErrStopped is returned when submitting to a stopped pool.
	ErrStopped = errors.New("worker pool is stopped")
	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("worker pool queue is full")
)

// Task is one unit of work.
type Task struct {
	ID      string
	Fn      func(context.Context) error
	Context context.Context
}

// Config holds worker pool configuration.
type Config struct {
	Name      string
	Workers   int
	QueueSize int
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// WorkerPool runs tasks on a fixed number of goroutines.
type WorkerPool struct {
	name      string
	workers   int
	queueSize int
	queue     chan Task
	logger    *zap.Logger
	metrics   *metrics.Metrics

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
	// mu is held for reading while a task is being queued and for writing
	// while the pool stops, so no task lands in the queue after the drain.
	mu     sync.RWMutex
	closed bool

	active    atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
}

// New starts a worker pool. Zero values select DefaultWorkers and a queue
// twice the pool width.
func New(cfg Config) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	p := &WorkerPool{
		name:      cfg.Name,
		workers:   cfg.Workers,
		queueSize: cfg.QueueSize,
		queue:     make(chan Task, cfg.QueueSize),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		stopCh:    make(chan struct{}),
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	p.logger.Debug("Worker pool started",
		zap.String("pool", p.name),
		zap.Int("workers", p.workers),
		zap.Int("queue_size", p.queueSize))
	return p
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			p.drain(id)
			return
		case task := <-p.queue:
			p.execute(id, task)
		}
	}
}

// drain runs what is left in the queue once the pool is stopping.
func (p *WorkerPool) drain(id int) {
	for {
		select {
		case task := <-p.queue:
			p.execute(id, task)
		default:
			return
		}
	}
}

func (p *WorkerPool) execute(workerID int, task Task) {
	p.active.Add(1)
	p.report()
	defer func() {
		p.active.Add(-1)
		p.report()
	}()

	start := time.Now()
	err := p.safeExecute(task)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("Task failed",
			zap.String("pool", p.name),
			zap.Int("worker_id", workerID),
			zap.String("task_id", task.ID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	p.completed.Add(1)
}

// safeExecute turns a panicking task into a failed one.
func (p *WorkerPool) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	ctx := task.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return task.Fn(ctx)
}

func (p *WorkerPool) report() {
	p.metrics.SetPool(int(p.active.Load()), len(p.queue))
}

// Submit enqueues task without blocking.
func (p *WorkerPool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.rejected.Add(1)
		return fmt.Errorf("%s: %w", p.name, ErrStopped)
	}
	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return fmt.Errorf("%s: %w", p.name, ErrQueueFull)
	}
}

// SubmitWithContext blocks until the task is queued, the context is done or
// the pool is stopped.
func (p *WorkerPool) SubmitWithContext(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.rejected.Add(1)
		return fmt.Errorf("%s: %w", p.name, ErrStopped)
	}
	select {
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	}
}

// Stop rejects new tasks, lets the workers finish everything already
// queued and waits up to timeout for them to exit. Stop is idempotent.
func (p *WorkerPool) Stop(timeout time.Duration) error {
	var err error
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.stopCh)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Debug("Worker pool stopped", zap.String("pool", p.name))
		case <-time.After(timeout):
			err = fmt.Errorf("worker pool %q stop timeout after %v", p.name, timeout)
		}
	})
	return err
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Name      string
	Workers   int
	Active    int
	QueueSize int
	Queued    int
	Submitted uint64
	Completed uint64
	Failed    uint64
	Rejected  uint64
}

// Stats returns current counters.
func (p *WorkerPool) Stats() Stats {
	return Stats{
		Name:      p.name,
		Workers:   p.workers,
		Active:    int(p.active.Load()),
		QueueSize: p.queueSize,
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// WorkerUtilization returns busy workers as a percentage.
func (s Stats) WorkerUtilization() float64 {
	if s.Workers == 0 {
		return 0
	}
	return float64(s.Active) / float64(s.Workers) * 100
}

// QueueUtilization returns the queue fill level as a percentage.
func (s Stats) QueueUtilization() float64 {
	if s.QueueSize == 0 {
		return 0
	}
	return float64(s.Queued) / float64(s.QueueSize) * 100
}
