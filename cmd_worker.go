package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/i18n"
	"github.com/minios-linux/pagetrans/pipeline"
	"github.com/minios-linux/pagetrans/server"
)

// ---------------------------------------------------------------------------
// worker (queue consumer + health server)
// ---------------------------------------------------------------------------

func newWorkerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: i18n.T("Consume PDF translation jobs from the queue"),
		Long: `Run the PDF translation worker.

Jobs are JSON objects on a Redis list:

  {"pdf_key": "uploads/guide.pdf", "from_language": "en", "to_language": "ta"}

Each job downloads the PDF from the input bucket, converts it with
pdf2htmlEX, translates it and uploads <key>_<from>_to_<to>.html to the
output bucket. The public.pdf status row follows the job. A small HTTP
server answers on /, /health and the metrics path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Worker.Concurrency = concurrency
			}
			if err := cfg.ValidatePipeline(); err != nil {
				return err
			}
			return runWorker(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Jobs processed at once (default from configuration)")

	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pagetrans worker",
		zap.String("version", version),
		zap.Strings("providers", cfg.Providers.Enabled),
		zap.Int("concurrency", cfg.Worker.Concurrency))

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	store, err := pipeline.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	status, err := pipeline.NewPostgresStatusStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer status.Close()

	queue, err := pipeline.NewRedisQueue(ctx, cfg.Queue)
	if err != nil {
		return err
	}
	defer queue.Close()

	runner := pipeline.NewRunner(pipeline.RunnerConfig{
		Store:         store,
		Converter:     pipeline.PDF2HTMLEX{Binary: cfg.Worker.Converter},
		Status:        status,
		Translator:    eng.docs,
		InputBucket:   cfg.Storage.InputBucket,
		OutputBucket:  cfg.Storage.OutputBucket,
		WorkDir:       cfg.Worker.WorkDir,
		DefaultSource: cfg.Translation.SourceLang,
		DefaultTarget: cfg.Translation.TargetLang,
		FontScale:     cfg.Translation.FontScale,
		Logger:        logger,
		Metrics:       eng.metrics,
	})
	worker := pipeline.NewWorker(queue, runner, cfg.Worker.Concurrency, logger)
	srv := server.New(cfg.Server, cfg.Metrics, eng.registry, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Worker shutdown complete")
	return nil
}
