package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"golang.org/x/time/rate"
)

const reasonUndetermined = "Không xác định hoặc lỗi đầu ra."

// TopicAnalysis is what the model says about an item and its topic.
type TopicAnalysis struct {
	ContainsTopic  bool     `json:"contains_topic"`
	TargetingTopic bool     `json:"targeting_topic"`
	Reason         string   `json:"reason"`
	CrisisKeywords []string `json:"crisis_keywords"`
}

// TopicChecker decides whether negative content targets its topic.
type TopicChecker interface {
	CheckTargetingTopic(ctx context.Context, item domain.ContentItem) (TopicAnalysis, error)
}

// Completer sends a single user prompt to a model and returns its text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Checker turns a Completer into a TopicChecker.
//
// Transport and parsing failures are folded into a negative analysis whose
// reason carries the error; only rate limiter failures (context cancelled)
// are returned as errors.
type Checker struct {
	completer Completer
	limiter   *rate.Limiter
}

var _ TopicChecker = (*Checker)(nil)

func NewChecker(completer Completer, rps float64, burst int) *Checker {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Checker{
		completer: completer,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// NewCheckerFromConfig builds the checker for the configured provider.
func NewCheckerFromConfig(ctx context.Context, cfg config.LLM) (*Checker, error) {
	var completer Completer
	var err error
	switch cfg.Provider {
	case config.ProviderGemini:
		completer, err = NewGeminiCompleter(ctx, cfg)
	case config.ProviderFireworks, "":
		completer, err = NewFireworksCompleter(cfg)
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewChecker(completer, cfg.RequestsPerSecond, cfg.Burst), nil
}

func (c *Checker) CheckTargetingTopic(ctx context.Context, item domain.ContentItem) (TopicAnalysis, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		llmCallsCounter.WithLabelValues(c.completer.Name(), "rate_limited").Inc()
		return TopicAnalysis{}, fmt.Errorf("rate limiter: %w", err)
	}
	text, err := c.completer.Complete(ctx, BuildPrompt(item))
	if err != nil {
		llmCallsCounter.WithLabelValues(c.completer.Name(), "error").Inc()
		logger.L().Ctx(ctx).Warning("llm call failed", helpers.Error(err),
			helpers.String("provider", c.completer.Name()),
			helpers.String("id", item.Id))
		return fallback(c.completer.Name(), err), nil
	}
	analysis, err := ParseTopicAnalysis(text)
	if err != nil {
		llmCallsCounter.WithLabelValues(c.completer.Name(), "invalid").Inc()
		logger.L().Ctx(ctx).Warning("cannot parse llm output", helpers.Error(err),
			helpers.String("provider", c.completer.Name()),
			helpers.String("id", item.Id))
		return fallback(c.completer.Name(), err), nil
	}
	llmCallsCounter.WithLabelValues(c.completer.Name(), "ok").Inc()
	return analysis, nil
}

func fallback(provider string, err error) TopicAnalysis {
	return TopicAnalysis{
		Reason:         fmt.Sprintf("Lỗi xử lý từ %s: %s", provider, err.Error()),
		CrisisKeywords: []string{},
	}
}

// ParseTopicAnalysis extracts the JSON object embedded in a model answer.
// Missing keys get defaults and loosely typed values are coerced.
func ParseTopicAnalysis(text string) (TopicAnalysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return TopicAnalysis{}, errors.New("no JSON object in model output")
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return TopicAnalysis{}, fmt.Errorf("unmarshal model output: %w", err)
	}

	analysis := TopicAnalysis{
		Reason:         reasonUndetermined,
		CrisisKeywords: []string{},
	}
	if v, ok := raw["contains_topic"]; ok {
		analysis.ContainsTopic = truthy(v)
	}
	if v, ok := raw["targeting_topic"]; ok {
		analysis.TargetingTopic = truthy(v)
	}
	if v, ok := raw["reason"]; ok {
		if s, isString := v.(string); isString {
			analysis.Reason = s
		} else {
			analysis.Reason = fmt.Sprint(v)
		}
	}
	if list, ok := raw["crisis_keywords"].([]any); ok {
		for _, k := range list {
			if s, isString := k.(string); isString {
				analysis.CrisisKeywords = append(analysis.CrisisKeywords, s)
			} else if k != nil {
				analysis.CrisisKeywords = append(analysis.CrisisKeywords, fmt.Sprint(k))
			}
		}
	}
	return analysis, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && !strings.EqualFold(t, "false")
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return false
	}
}
