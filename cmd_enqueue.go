package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/i18n"
	"github.com/minios-linux/pagetrans/pipeline"
)

// ---------------------------------------------------------------------------
// enqueue (job producer)
// ---------------------------------------------------------------------------

func newEnqueueCmd() *cobra.Command {
	var source, target string

	cmd := &cobra.Command{
		Use:   "enqueue <pdf-key>",
		Short: i18n.T("Submit a PDF translation job to the queue"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			job := newJob(cfg, args[0], source, target)
			if err := runEnqueue(cmd.Context(), cfg.Queue, job); err != nil {
				return err
			}
			logSuccess(i18n.T("Queued job %s for %s (%s -> %s)"), job.ID, job.PDFKey, job.SourceLang, job.TargetLang)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "from", "f", "", "Source language (default from configuration)")
	cmd.Flags().StringVarP(&target, "to", "t", "", "Target language (default from configuration)")

	return cmd
}

// newJob builds a job, falling back to the configured languages.
func newJob(cfg *config.Config, pdfKey, source, target string) pipeline.Job {
	if source == "" {
		source = cfg.Translation.SourceLang
	}
	if target == "" {
		target = cfg.Translation.TargetLang
	}
	return pipeline.Job{
		ID:         uuid.NewString(),
		PDFKey:     pdfKey,
		SourceLang: source,
		TargetLang: target,
	}
}

func runEnqueue(ctx context.Context, cfg config.QueueConfig, job pipeline.Job) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.RedisURL == "" {
		return errors.New(i18n.T("queue.redis_url is not configured"))
	}
	queue, err := pipeline.NewRedisQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer queue.Close()
	return queue.Enqueue(ctx, job)
}
