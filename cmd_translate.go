package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/pagetrans/cachefile"
	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/htmlpage"
	"github.com/minios-linux/pagetrans/i18n"
	"github.com/minios-linux/pagetrans/langmeta"
	"github.com/minios-linux/pagetrans/pipeline"
)

// ---------------------------------------------------------------------------
// translate (local document)
// ---------------------------------------------------------------------------

type translateArgs struct {
	input          string
	output         string
	from, to       string
	providers      string
	cacheFile      string
	noCache        bool
	fontScale      float64
	converter      string
	workers        int
	attempts       int
	requestTimeout time.Duration
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate <document.html|document.pdf>",
		Short: i18n.T("Translate a local HTML or PDF document"),
		Long: `Translate a pdf2htmlEX document on disk.

PDF input is converted with pdf2htmlEX first. The output keeps the layout of
the input; the header font sizes are scaled down so longer translations fit.

Examples:
  # English to Tamil with the configured providers
  pagetrans translate guide.html --from en --to ta

  # Only the free web providers, warm cache between runs
  pagetrans translate guide.pdf --to de --providers google,mymemory --cache-file .pagetrans-cache.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.input = args[0]
			return runTranslate(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Output file (default: <input>_<from>_to_<to>.html)")
	cmd.Flags().StringVar(&a.from, "from", "", "Source language (default from configuration, 'auto' to detect)")
	cmd.Flags().StringVar(&a.to, "to", "", "Target language (default from configuration)")
	cmd.Flags().StringVar(&a.providers, "providers", "", "Comma-separated providers to enable, in tie-break order")
	cmd.Flags().StringVar(&a.cacheFile, "cache-file", "", "YAML translation cache to warm from and save to")
	cmd.Flags().BoolVar(&a.noCache, "no-cache", false, "Do not read or write the cache file")
	cmd.Flags().Float64Var(&a.fontScale, "font-scale", 0, "Header font scale (default from configuration)")
	cmd.Flags().StringVar(&a.converter, "converter", "", "pdf2htmlEX executable for PDF input")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "Concurrent pages (default from configuration)")
	cmd.Flags().IntVar(&a.attempts, "attempts", 0, "Provider attempts per block (default from configuration)")
	cmd.Flags().DurationVar(&a.requestTimeout, "timeout", 0, "Per-request provider timeout")

	_ = cmd.RegisterFlagCompletionFunc("providers", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"google\tGoogle Translate web page",
			"googletrans\tGoogle Translate JSON endpoint",
			"mymemory\tMyMemory API",
			"openai\tOpenAI (API key)",
			"gemini\tGemini (API key)",
		}, cobra.ShellCompDirectiveNoFileComp
	})
	langCompletion := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, code := range langmeta.Codes() {
			out = append(out, code+"\t"+langmeta.Resolve(code).Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
	_ = cmd.RegisterFlagCompletionFunc("from", langCompletion)
	_ = cmd.RegisterFlagCompletionFunc("to", langCompletion)

	return cmd
}

// applyTranslateFlags overrides configuration values with explicit flags.
func applyTranslateFlags(cfg *config.Config, a *translateArgs) error {
	if a.from != "" {
		cfg.Translation.SourceLang = a.from
	}
	if a.to != "" {
		cfg.Translation.TargetLang = a.to
	}
	if a.providers != "" {
		var enabled []string
		for _, p := range strings.Split(a.providers, ",") {
			if p = strings.TrimSpace(p); p != "" {
				enabled = append(enabled, p)
			}
		}
		cfg.Providers.Enabled = enabled
	}
	if a.fontScale > 0 {
		cfg.Translation.FontScale = a.fontScale
	}
	if a.workers > 0 {
		cfg.Translation.PoolWorkers = a.workers
	}
	if a.attempts > 0 {
		cfg.Translation.Attempts = a.attempts
	}
	if a.requestTimeout > 0 {
		for _, p := range []*config.HTTPProviderConfig{&cfg.Providers.Google, &cfg.Providers.Googletrans, &cfg.Providers.MyMemory.HTTPProviderConfig} {
			p.Timeout = a.requestTimeout
		}
		cfg.Providers.OpenAI.Timeout = a.requestTimeout
		cfg.Providers.Gemini.Timeout = a.requestTimeout
	}
	if a.converter != "" {
		cfg.Worker.Converter = a.converter
	}
	if a.cacheFile == "" && !a.noCache {
		a.cacheFile = cfg.Translation.CacheFile
	}
	return cfg.Validate()
}

// defaultOutputPath places the result next to the input.
func defaultOutputPath(input, source, target string) string {
	return pipeline.OutputKey(input, source, target)
}

func runTranslate(ctx context.Context, a translateArgs) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyTranslateFlags(cfg, &a); err != nil {
		return err
	}
	src, tgt := cfg.Translation.SourceLang, cfg.Translation.TargetLang

	if !langmeta.Known(tgt) {
		logWarning(i18n.T("Unknown target language %q, passing it to providers as is"), tgt)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	var cache *cachefile.File
	if a.cacheFile != "" && !a.noCache {
		cache, err = cachefile.Load(a.cacheFile)
		if err != nil {
			return err
		}
		eng.warm(cache.Entries())
		if _, entries := cache.Stats(); entries > 0 {
			logInfo(i18n.T("Loaded cache %s: %s"), a.cacheFile, cache.Summary())
		}
	}

	input := a.input
	if strings.EqualFold(filepath.Ext(input), ".pdf") {
		html, cleanup, err := convertLocalPDF(ctx, cfg, input)
		if err != nil {
			return err
		}
		defer cleanup()
		input = html
	}

	output := a.output
	if output == "" {
		output = defaultOutputPath(a.input, src, tgt)
	}

	srcMeta, tgtMeta := langmeta.Resolve(src), langmeta.Resolve(tgt)
	logInfo(i18n.T("Translating %s: %s %s → %s %s"), a.input, srcMeta.Flag, srcMeta.Name, tgtMeta.Flag, tgtMeta.Name)

	start := time.Now()
	stats, err := translateFile(ctx, eng, input, output, src, tgt, cfg.Translation.FontScale)
	if err != nil {
		return err
	}

	if cache != nil {
		cache.Merge(eng.cache.Entries())
		if err := cache.Save(); err != nil {
			logWarning(i18n.T("Failed to save cache: %v"), err)
		} else {
			logInfo(i18n.T("Saved cache %s: %s"), cache.Path(), cache.Summary())
		}
	}

	if ctx.Err() != nil {
		logWarning("%s", i18n.T("Interrupted, untranslated blocks keep their original text"))
	}
	if stats.Fallbacks > 0 {
		logWarning(i18n.N("%d block kept its original text", "%d blocks kept their original text", stats.Fallbacks), stats.Fallbacks)
	}
	logSuccess(i18n.T("Wrote %s (%d blocks, %d translated, %d from cache) in %s"),
		output, stats.Leaves, stats.Translated, stats.Cached, time.Since(start).Round(time.Millisecond))
	return nil
}

func translateFile(ctx context.Context, eng *engine, input, output, source, target string, scale float64) (htmlpage.PageStats, error) {
	in, err := os.Open(input)
	if err != nil {
		return htmlpage.PageStats{}, err
	}
	defer in.Close()

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return htmlpage.PageStats{}, fmt.Errorf("creating output directory: %w", err)
		}
	}
	out, err := os.Create(output)
	if err != nil {
		return htmlpage.PageStats{}, err
	}

	collector := &statsCollector{docs: eng.docs}
	if err := pipeline.Assemble(ctx, in, out, collector, source, target, scale); err != nil {
		out.Close()
		return htmlpage.PageStats{}, err
	}
	if err := out.Close(); err != nil {
		return htmlpage.PageStats{}, err
	}
	return collector.stats, nil
}

// convertLocalPDF runs pdf2htmlEX into a temporary directory.
func convertLocalPDF(ctx context.Context, cfg *config.Config, pdf string) (string, func(), error) {
	dir, err := os.MkdirTemp(cfg.Worker.WorkDir, "pagetrans-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	abs, err := filepath.Abs(pdf)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	logInfo(i18n.T("Converting %s with %s"), pdf, cfg.Worker.Converter)
	conv := pipeline.PDF2HTMLEX{Binary: cfg.Worker.Converter}
	if err := conv.Convert(ctx, abs, dir, "output.html"); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("converting %s: %w", pdf, err)
	}
	return filepath.Join(dir, "output.html"), cleanup, nil
}
