package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/negbuzz/negbuzz/config"
)

const (
	fireworksName         = "Fireworks"
	fireworksCompletions  = "/inference/v1/chat/completions"
	fireworksMaxTokens    = 4096
	fireworksTemperature  = 0.6
	fireworksTopK         = 40
	fireworksTopP         = 1
	fireworksDefaultModel = "accounts/fireworks/models/llama4-scout-instruct-basic"
	fireworksDefaultUrl   = "https://api.fireworks.ai"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	TopK             int           `json:"top_k"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	Temperature      float64       `json:"temperature"`
	Messages         []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// FireworksCompleter calls an OpenAI compatible chat completions endpoint.
type FireworksCompleter struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

var _ Completer = (*FireworksCompleter)(nil)

func NewFireworksCompleter(cfg config.LLM) (*FireworksCompleter, error) {
	if cfg.ApiKey == "" {
		return nil, errors.New("fireworks api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = fireworksDefaultModel
	}
	baseUrl := cfg.ApiUrl
	if baseUrl == "" {
		baseUrl = fireworksDefaultUrl
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FireworksCompleter{
		apiKey:     cfg.ApiKey,
		url:        strings.TrimSuffix(baseUrl, "/") + fireworksCompletions,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *FireworksCompleter) Name() string {
	return fireworksName
}

func (c *FireworksCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		MaxTokens:   fireworksMaxTokens,
		TopP:        fireworksTopP,
		TopK:        fireworksTopK,
		Temperature: fireworksTemperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("api error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}
