// Package document translates a whole pdf2htmlEX document, one page per
// line, across a bounded worker pool.
package document

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/htmlpage"
	"github.com/minios-linux/pagetrans/pool"
)

// PageTranslator translates one line. *htmlpage.Scheduler implements it.
type PageTranslator interface {
	TranslatePage(ctx context.Context, fragment, source, target string) (string, htmlpage.PageStats)
}

// Translator fans lines out to a worker pool and reassembles them in input
// order. One Translator can serve several documents at once; they share the
// pool.
type Translator struct {
	pages  PageTranslator
	pool   *pool.WorkerPool
	logger *zap.Logger
}

// New creates a translator over an existing pool.
func New(pages PageTranslator, p *pool.WorkerPool, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{pages: pages, pool: p, logger: logger}
}

// TranslateDocument translates every line and returns the output lines in
// input order. Lines that cannot be scheduled (stopped pool, cancelled
// context) are returned unchanged.
func (t *Translator) TranslateDocument(ctx context.Context, lines []string, source, target string) []string {
	out, _ := t.TranslateDocumentStats(ctx, lines, source, target)
	return out
}

// TranslateDocumentStats is TranslateDocument plus the accumulated page
// statistics.
func (t *Translator) TranslateDocumentStats(ctx context.Context, lines []string, source, target string) ([]string, htmlpage.PageStats) {
	out := make([]string, len(lines))
	copy(out, lines)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total htmlpage.PageStats
	)
	for i, line := range lines {
		if !htmlpage.IsPage(line) {
			continue
		}
		wg.Add(1)
		err := t.pool.SubmitWithContext(ctx, pool.Task{
			ID:      fmt.Sprintf("line-%d", i),
			Context: ctx,
			Fn: func(ctx context.Context) error {
				defer wg.Done()
				translated, stats := t.pages.TranslatePage(ctx, line, source, target)
				out[i] = translated
				mu.Lock()
				total.Add(stats)
				mu.Unlock()
				return nil
			},
		})
		if err != nil {
			wg.Done()
			t.logger.Warn("Line not scheduled, keeping original",
				zap.Int("line", i),
				zap.Error(err))
		}
	}
	wg.Wait()

	t.logger.Debug("Document translated",
		zap.Int("lines", len(lines)),
		zap.Int("leaves", total.Leaves),
		zap.Int("translated", total.Translated),
		zap.Int("cached", total.Cached),
		zap.Int("fallbacks", total.Fallbacks))
	return out, total
}
