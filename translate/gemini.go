package translate

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini translates through the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
}

// NewGemini creates the gemini backend.
func NewGemini(ctx context.Context, opts LLMOptions) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	temperature := opts.Temperature
	return &Gemini{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
			Temperature:       &temperature,
		},
		timeout: opts.Timeout,
	}, nil
}

// Translate implements Backend.
func (g *Gemini) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt(text, source, target)), g.config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return cleanLLMOutput(resp.Text()), nil
}
