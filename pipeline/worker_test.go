package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource serves jobs from a channel and errors from a list.
type chanSource struct {
	jobs chan *Job
	errs chan error
}

func (s *chanSource) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-s.errs:
		return nil, err
	case job := <-s.jobs:
		return job, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

type recordingRunner struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
	want int
}

func (r *recordingRunner) Run(_ context.Context, job Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, job.PDFKey)
	if len(r.seen) == r.want {
		close(r.done)
	}
	if job.PDFKey == "bad.pdf" {
		return "", errors.New("conversion failed")
	}
	return job.PDFKey + ".html", nil
}

func TestWorker_ConsumesUntilCancelled(t *testing.T) {
	src := &chanSource{jobs: make(chan *Job, 4), errs: make(chan error, 2)}
	src.errs <- ErrMalformedJob
	src.jobs <- &Job{PDFKey: "a.pdf"}
	src.jobs <- &Job{PDFKey: "bad.pdf"}
	src.jobs <- &Job{PDFKey: "c.pdf"}

	runner := &recordingRunner{done: make(chan struct{}), want: 3}
	w := NewWorker(src, runner, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs not consumed")
	}
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.ElementsMatch(t, []string{"a.pdf", "bad.pdf", "c.pdf"}, runner.seen)
}

func TestWorker_RetriesAfterSourceError(t *testing.T) {
	src := &chanSource{jobs: make(chan *Job, 1), errs: make(chan error, 1)}
	src.errs <- errors.New("connection refused")
	src.jobs <- &Job{PDFKey: "a.pdf"}

	runner := &recordingRunner{done: make(chan struct{}), want: 1}
	w := NewWorker(src, runner, 1, nil)
	w.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job not consumed after source error")
	}
}

func TestNewWorker_DefaultConcurrency(t *testing.T) {
	w := NewWorker(&chanSource{}, &recordingRunner{}, 0, nil)
	assert.Equal(t, DefaultConcurrency, w.concurrency)
}
