package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobSource yields queued jobs. Dequeue returns (nil, nil) when nothing
// arrived within its wait.
type JobSource interface {
	Dequeue(ctx context.Context) (*Job, error)
}

// JobRunner executes one job.
type JobRunner interface {
	Run(ctx context.Context, job Job) (string, error)
}

// DefaultConcurrency is the number of jobs processed at once.
const DefaultConcurrency = 2

// Worker consumes jobs with a fixed number of consumers.
type Worker struct {
	source      JobSource
	runner      JobRunner
	concurrency int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewWorker creates a worker.
func NewWorker(source JobSource, runner JobRunner, concurrency int, logger *zap.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		source:      source,
		runner:      runner,
		concurrency: concurrency,
		retryDelay:  time.Second,
		logger:      logger,
	}
}

// Run consumes jobs until ctx is cancelled. Job failures are logged and do
// not stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started", zap.Int("concurrency", w.concurrency))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			w.consume(ctx, i)
			return nil
		})
	}
	err := g.Wait()
	w.logger.Info("Worker stopped")
	return err
}

func (w *Worker) consume(ctx context.Context, id int) {
	log := w.logger.With(zap.Int("consumer", id))
	for ctx.Err() == nil {
		job, err := w.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrMalformedJob) {
				log.Warn("Dropping malformed job", zap.Error(err))
				continue
			}
			log.Error("Failed to dequeue job", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if job == nil {
			continue
		}

		log.Info("Job received", zap.String("job_id", job.ID), zap.String("pdf_key", job.PDFKey))
		// the runner logs and records failures itself
		_, _ = w.runner.Run(ctx, *job)
	}
}
