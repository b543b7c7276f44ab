package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/i18n"
	"github.com/minios-linux/pagetrans/langmeta"
	"github.com/minios-linux/pagetrans/translate"
)

// ---------------------------------------------------------------------------
// providers (configured providers + live scores)
// ---------------------------------------------------------------------------

func newProvidersCmd() *cobra.Command {
	var (
		probe    string
		rounds   int
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: i18n.T("Show configured providers and their live scores"),
		Long: `List the enabled providers in tie-break order.

With --probe the given text is sent to every provider (--rounds times) and
the resulting success rates and scores are shown, the same numbers the
dispatcher uses to order providers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if from != "" {
				cfg.Translation.SourceLang = from
			}
			if to != "" {
				cfg.Translation.TargetLang = to
			}
			return runProviders(cmd.Context(), cmd.OutOrStdout(), cfg, probe, rounds)
		},
	}

	cmd.Flags().StringVar(&probe, "probe", "", "Text to translate with every provider")
	cmd.Flags().IntVar(&rounds, "rounds", 1, "Probe rounds per provider")
	cmd.Flags().StringVar(&from, "from", "", "Probe source language")
	cmd.Flags().StringVar(&to, "to", "", "Probe target language")

	return cmd
}

// probeResult is the last answer of one provider.
type probeResult struct {
	text    string
	err     error
	elapsed time.Duration
}

func runProviders(ctx context.Context, w io.Writer, cfg *config.Config, probe string, rounds int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tracker := translate.NewTracker()
	providers, err := translate.BuildProviders(ctx, cfg.ProviderSettings(), tracker, zap.NewNop(), nil)
	if err != nil {
		return err
	}

	results := make(map[translate.ProviderName]probeResult, len(providers))
	if probe != "" {
		src, tgt := cfg.Translation.SourceLang, cfg.Translation.TargetLang
		logInfo(i18n.T("Probing %d providers: %s → %s"), len(providers), langmeta.Name(src), langmeta.Name(tgt))
		for _, p := range providers {
			for range max(rounds, 1) {
				start := time.Now()
				out, err := p.Translate(ctx, probe, src, tgt)
				results[p.Name()] = probeResult{text: out, err: err, elapsed: time.Since(start)}
			}
		}
	}

	ranker := translate.NewRanker()
	ranker.Cooldown = cfg.Translation.Cooldown
	printProviderTable(w, tracker, ranker, results)

	if skipped := disabledProviders(cfg, providers); len(skipped) > 0 {
		fmt.Fprintln(w)
		logWarning(i18n.T("Skipped (no API key): %s"), strings.Join(skipped, ", "))
	}
	return nil
}

func printProviderTable(w io.Writer, tracker *translate.Tracker, ranker *translate.Ranker, results map[translate.ProviderName]probeResult) {
	snap := tracker.Snapshot()

	fmt.Fprintf(w, "\n%sProviders%s\n", colorBlue, colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-4s %-12s %-6s %-6s %-26s %s\n", "#", "Provider", "OK", "Fail", "Success rate", "Score")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	for i, name := range tracker.Providers() {
		rec := snap[name]
		rate := translate.SuccessRate(rec)
		fmt.Fprintf(w, "%-4d %-12s %-6d %-6d %s  %.2f\n",
			i+1, name, rec.Successes, rec.Failures, progressBar(int(rate*100), 20), ranker.Score(rec))
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))

	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, name := range tracker.Providers() {
		r, ok := results[name]
		if !ok {
			continue
		}
		if r.err != nil {
			fmt.Fprintf(w, "  %-12s %s✗%s %v\n", name, colorRed, colorReset, r.err)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s✓%s %q (%s)\n", name, colorGreen, colorReset, r.text, r.elapsed.Round(time.Millisecond))
	}
}

// disabledProviders lists enabled names that BuildProviders skipped.
func disabledProviders(cfg *config.Config, built []translate.Provider) []string {
	have := make(map[translate.ProviderName]bool, len(built))
	for _, p := range built {
		have[p.Name()] = true
	}
	var out []string
	for _, name := range cfg.Providers.Enabled {
		if !have[translate.ProviderName(name)] {
			out = append(out, name)
		}
	}
	return out
}
