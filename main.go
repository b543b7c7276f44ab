// pagetrans translates pdf2htmlEX documents block by block across several
// machine translation providers.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/credentials"
	"github.com/minios-linux/pagetrans/i18n"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// progressBar renders percent (clamped to 0..100) as a colored bar.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf("%4d%%", percent)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var configPath string

// loadConfig reads the configuration and fills missing provider secrets
// from the credential store.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyCredentials(credentials.Load())
	return cfg, nil
}

// newLogger builds the structured logger used by the engine. The CLI keeps
// its own colored lines on stderr; the engine logs go through zap.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagetrans",
		Short: i18n.T("Translate pdf2htmlEX documents with multiple translation providers"),
		Long: `pagetrans translates the text blocks of pdf2htmlEX HTML documents while
keeping every block at its original position on the page.

Each block is sent to the most reliable provider at the moment, with
failover, backoff and a translation cache. Untranslatable blocks keep their
original text.

Commands:
  translate   Translate a local HTML (or PDF) document
  worker      Consume PDF jobs from the queue
  providers   Show configured providers and their live scores
  auth        Manage stored provider API keys

Providers:
  google       Google Translate mobile web page
  googletrans  Google Translate public JSON endpoint
  mymemory     MyMemory translation memory API
  openai       OpenAI chat completions (API key)
  gemini       Gemini API (API key)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: ./pagetrans.yaml or /etc/pagetrans/pagetrans.yaml)")

	root.AddCommand(
		newTranslateCmd(),
		newWorkerCmd(),
		newEnqueueCmd(),
		newProvidersCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pagetrans version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}
