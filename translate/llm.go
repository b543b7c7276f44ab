package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minios-linux/pagetrans/langmeta"
)

// LLMOptions configures the OpenAI and Gemini backends.
type LLMOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	// Timeout bounds one completion call; zero means no extra bound.
	Timeout time.Duration
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// SystemPrompt is sent to LLM backends. Text blocks come from a PDF
// converted to HTML, so they are often fragments of a sentence.
const SystemPrompt = `You are a professional translator. You are translating text blocks extracted from a PDF document that was converted to HTML.

RULES:
- Translate the user message from the source language into the target language.
- The text may be a fragment of a sentence, a heading, a table cell or a page number. Translate it as it stands.
- Preserve numbers, punctuation, URLs and e-mail addresses exactly.
- Do not add explanations, quotes, notes or formatting.
- Respond with the translation only.`

func userPrompt(text, source, target string) string {
	return fmt.Sprintf("Translate from %s to %s:\n\n%s", langmeta.Name(source), langmeta.Name(target), text)
}

// cleanLLMOutput strips the wrapping quotes and code fences models
// sometimes add around a short answer.
func cleanLLMOutput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) >= 6 {
		s = strings.TrimSpace(s[3 : len(s)-3])
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}
