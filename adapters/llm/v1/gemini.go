package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/negbuzz/negbuzz/config"
	"google.golang.org/genai"
)

const (
	geminiName         = "Gemini"
	geminiDefaultModel = "gemini-2.0-flash"
)

// GeminiCompleter calls the Gemini API through the GenAI SDK.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

var _ Completer = (*GeminiCompleter)(nil)

// NewGeminiCompleter builds a Gemini client. cfg.ApiUrl, when set,
// overrides the SDK base URL.
func NewGeminiCompleter(ctx context.Context, cfg config.LLM) (*GeminiCompleter, error) {
	if cfg.ApiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.ApiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.ApiUrl != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.ApiUrl}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiCompleter{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiCompleter) Name() string {
	return geminiName
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
