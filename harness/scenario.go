package harness

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/negbuzz/negbuzz/domain"
	"gopkg.in/yaml.v3"
)

// Payload kinds a step can send.
const (
	PayloadNone    = "none"
	PayloadFixture = "fixture"
	PayloadBatch   = "batch"
	PayloadPredict = "predict"
)

const defaultBatchSize = 3

// Step emits one event At after the scenario started.
type Step struct {
	At        time.Duration `yaml:"at"`
	Label     string        `yaml:"label"`
	Event     string        `yaml:"event"`
	Payload   string        `yaml:"payload"`
	BatchSize int           `yaml:"batchSize"`
}

type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// SmokeScenario exercises every analysis event against the negative-content
// server.
func SmokeScenario() Scenario {
	return Scenario{
		Name: "smoke",
		Steps: []Step{
			{At: 0, Label: "Testing single analyze (no cache)", Event: "analyze_negative", Payload: PayloadFixture},
			{At: 2 * time.Second, Label: "Testing single analyze (with cache)", Event: "analyze_negative", Payload: PayloadFixture},
			{At: 4 * time.Second, Label: "Testing batch analyze", Event: "batch_analyze_negative", Payload: PayloadBatch, BatchSize: defaultBatchSize},
			{At: 6 * time.Second, Label: "Getting cache stats", Event: "get_cache_stats", Payload: PayloadNone},
			{At: 8 * time.Second, Label: "Clearing cache", Event: "clear_cache", Payload: PayloadNone},
		},
	}
}

// PredictScenario sends the fixture to the sentiment pipeline once.
func PredictScenario() Scenario {
	return Scenario{
		Name: "predict",
		Steps: []Step{
			{At: 0, Label: "Sending predict", Event: "predict", Payload: PayloadPredict},
		},
	}
}

// LoadScenario reads a YAML scenario, fallback is returned for an empty path.
func LoadScenario(path string, fallback Scenario) (Scenario, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return scenario, nil
}

func (s Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("no steps")
	}
	for i, step := range s.Steps {
		event, ok := domain.ValuesToEvent[step.Event]
		if !ok {
			return fmt.Errorf("step %d: unknown event %q", i, step.Event)
		}
		if event > domain.EventPredict {
			return fmt.Errorf("step %d: %s is not a client event", i, step.Event)
		}
		switch step.Payload {
		case "", PayloadNone, PayloadFixture, PayloadBatch, PayloadPredict:
		default:
			return fmt.Errorf("step %d: unknown payload %q", i, step.Payload)
		}
		if step.At < 0 {
			return fmt.Errorf("step %d: negative delay", i)
		}
	}
	return nil
}

// payload builds the data sent by step.
func (s Step) payload(fixture domain.ContentItem) (any, error) {
	switch s.Payload {
	case PayloadFixture:
		return fixture, nil
	case PayloadBatch:
		n := s.BatchSize
		if n <= 0 {
			n = defaultBatchSize
		}
		return Batch(fixture, n)
	case PayloadPredict:
		return domain.PredictRequest{Data: []domain.ContentItem{PredictItem(fixture)}}, nil
	default:
		return nil, nil
	}
}
