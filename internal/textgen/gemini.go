package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// GeminiProvider completes prompts with the Gemini API.
type GeminiProvider struct {
	cli        *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiProvider{
		cli:        cli,
		model:      model,
		timeout:    timeout,
		maxRetries: 3,
		backoff:    time.Second,
	}, nil
}

func (g *GeminiProvider) Name() string { return "gemini:" + g.model }

func (g *GeminiProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: opts.MaxOutputTokens,
	}

	var text string
	err := RetryWithBackoff(ctx, func() error {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			return err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return fmt.Errorf("empty response from %s", g.model)
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if strings.TrimSpace(sb.String()) == "" {
			return fmt.Errorf("empty response from %s", g.model)
		}
		text = sb.String()
		return nil
	}, g.maxRetries, g.backoff)
	if err != nil {
		return "", err
	}
	return text, nil
}
