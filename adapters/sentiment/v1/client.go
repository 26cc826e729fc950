package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
)

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	PredictedLabel string `json:"predicted_label"`
}

// Client asks the model server for the sentiment label of a text.
type Client struct {
	url        string
	attempts   int
	wait       time.Duration
	httpClient *http.Client
}

func NewClient(cfg config.Sentiment) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        cfg.Url,
		attempts:   cfg.Attempts,
		wait:       cfg.Wait,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Classify returns the lower-cased label, or neutral when the model server
// cannot answer. Only transport errors are retried.
func (c *Client) Classify(ctx context.Context, text string) string {
	var label string
	err := backoff.RetryNotify(func() error {
		var err error
		label, err = c.predict(ctx, text)
		return err
	}, backoff.WithContext(utils.NewFixedBackOff(c.wait, c.attempts), ctx), func(err error, d time.Duration) {
		logger.L().Ctx(ctx).Debug("sentiment request failed", helpers.Error(err),
			helpers.String("retry in", d.String()))
	})
	if err != nil {
		sentimentErrorsCounter.Inc()
		logger.L().Ctx(ctx).Warning("sentiment inference failed, using neutral", helpers.Error(err))
		return domain.SentimentNeutral
	}
	return label
}

func (c *Client) predict(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", backoff.Permanent(fmt.Errorf("model server answered %s", resp.Status))
	}
	var prediction predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if prediction.PredictedLabel == "" {
		return domain.SentimentNeutral, nil
	}
	return strings.ToLower(prediction.PredictedLabel), nil
}
