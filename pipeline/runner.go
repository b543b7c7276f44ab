package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/metrics"
)

// ObjectStore moves files to and from buckets.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, dest string) error
	Upload(ctx context.Context, bucket, key, src string) error
}

// Converter renders a PDF as a single HTML file inside destDir.
type Converter interface {
	Convert(ctx context.Context, input, destDir, outputName string) error
}

// StatusStore records the processing state of a PDF.
type StatusStore interface {
	SetStatus(ctx context.Context, pdfKey, status string) error
}

// RunnerConfig holds the collaborators and settings of a Runner.
type RunnerConfig struct {
	Store      ObjectStore
	Converter  Converter
	Status     StatusStore // optional
	Translator DocumentTranslator

	InputBucket   string
	OutputBucket  string
	WorkDir       string // "" = os.TempDir()
	DefaultSource string
	DefaultTarget string
	FontScale     float64

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Runner executes single jobs.
type Runner struct {
	cfg    RunnerConfig
	logger *zap.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FontScale <= 0 {
		cfg.FontScale = DefaultFontScale
	}
	return &Runner{cfg: cfg, logger: cfg.Logger}
}

// Run processes one job and returns the key of the uploaded document.
// The status row moves to processing, then to completed or failed.
func (r *Runner) Run(ctx context.Context, job Job) (string, error) {
	start := time.Now()
	if job.SourceLang == "" {
		job.SourceLang = r.cfg.DefaultSource
	}
	if job.TargetLang == "" {
		job.TargetLang = r.cfg.DefaultTarget
	}
	log := r.logger.With(
		zap.String("job_id", job.ID),
		zap.String("pdf_key", job.PDFKey),
		zap.String("source", job.SourceLang),
		zap.String("target", job.TargetLang),
	)

	r.setStatus(ctx, log, job.PDFKey, StatusProcessing)

	key, err := r.run(ctx, log, job)
	if err != nil {
		log.Error("Job failed", zap.Error(err))
		r.setStatus(context.WithoutCancel(ctx), log, job.PDFKey, StatusFailed)
		r.cfg.Metrics.ObserveJob(StatusFailed, time.Since(start))
		return "", err
	}

	r.setStatus(ctx, log, job.PDFKey, StatusCompleted)
	r.cfg.Metrics.ObserveJob(StatusCompleted, time.Since(start))
	log.Info("Job completed",
		zap.String("output_key", key),
		zap.Duration("elapsed", time.Since(start)))
	return key, nil
}

func (r *Runner) run(ctx context.Context, log *zap.Logger, job Job) (string, error) {
	dir, err := os.MkdirTemp(r.cfg.WorkDir, "pagetrans-*")
	if err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("Failed to remove work dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	input := filepath.Join(dir, "input.pdf")
	converted := filepath.Join(dir, "output.html")
	translated := filepath.Join(dir, "translated.html")

	stepStart := time.Now()
	if err := r.cfg.Store.Download(ctx, r.cfg.InputBucket, job.PDFKey, input); err != nil {
		return "", fmt.Errorf("downloading %s: %w", job.PDFKey, err)
	}
	if err := r.cfg.Converter.Convert(ctx, input, dir, filepath.Base(converted)); err != nil {
		return "", fmt.Errorf("converting %s: %w", job.PDFKey, err)
	}
	log.Info("PDF downloaded and converted", zap.Duration("elapsed", time.Since(stepStart)))

	stepStart = time.Now()
	if err := r.assemble(ctx, converted, translated, job); err != nil {
		return "", err
	}
	log.Info("Translation completed", zap.Duration("elapsed", time.Since(stepStart)))

	key := OutputKey(job.PDFKey, job.SourceLang, job.TargetLang)
	if err := r.cfg.Store.Upload(ctx, r.cfg.OutputBucket, key, translated); err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	log.Info("Uploaded translated document",
		zap.String("bucket", r.cfg.OutputBucket),
		zap.String("key", key))
	return key, nil
}

func (r *Runner) assemble(ctx context.Context, src, dst string, job Job) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening converted document: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating output document: %w", err)
	}
	if err := Assemble(ctx, in, out, r.cfg.Translator, job.SourceLang, job.TargetLang, r.cfg.FontScale); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// setStatus never fails the job: the document is still produced when the
// status row cannot be written.
func (r *Runner) setStatus(ctx context.Context, log *zap.Logger, pdfKey, status string) {
	if r.cfg.Status == nil {
		return
	}
	if err := r.cfg.Status.SetStatus(ctx, pdfKey, status); err != nil {
		log.Warn("Failed to update job status", zap.String("status", status), zap.Error(err))
	}
}
