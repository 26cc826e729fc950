package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/negbuzz/negbuzz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeScenario(t *testing.T) {
	s := SmokeScenario()
	require.NoError(t, s.Validate())
	var at []time.Duration
	var events []string
	for _, step := range s.Steps {
		at = append(at, step.At)
		events = append(events, step.Event)
	}
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second}, at)
	assert.Equal(t, []string{"analyze_negative", "analyze_negative", "batch_analyze_negative", "get_cache_stats", "clear_cache"}, events)
	require.NoError(t, PredictScenario().Validate())
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: quick
steps:
  - at: 0s
    label: first
    event: analyze_negative
    payload: fixture
  - at: 1500ms
    label: batch
    event: batch_analyze_negative
    payload: batch
    batchSize: 5
`), 0o600))
	s, err := LoadScenario(path, SmokeScenario())
	require.NoError(t, err)
	assert.Equal(t, "quick", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, 1500*time.Millisecond, s.Steps[1].At)
	assert.Equal(t, 5, s.Steps[1].BatchSize)

	s, err = LoadScenario("", PredictScenario())
	require.NoError(t, err)
	assert.Equal(t, "predict", s.Name)
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name string
		step Step
	}{
		{"unknown event", Step{Event: "nope"}},
		{"server event", Step{Event: "analyze_result"}},
		{"unknown payload", Step{Event: "predict", Payload: "everything"}},
		{"negative delay", Step{Event: "predict", At: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Scenario{Steps: []Step{tt.step}}.Validate())
		})
	}
	assert.Error(t, Scenario{}.Validate())
}

func TestStep_Payload(t *testing.T) {
	fixture := DefaultFixture()

	payload, err := Step{Payload: PayloadNone}.payload(fixture)
	require.NoError(t, err)
	assert.Nil(t, payload)

	payload, err = Step{Payload: PayloadBatch}.payload(fixture)
	require.NoError(t, err)
	assert.Len(t, payload, defaultBatchSize)

	payload, err = Step{Payload: PayloadPredict}.payload(fixture)
	require.NoError(t, err)
	req, ok := payload.(domain.PredictRequest)
	require.True(t, ok)
	require.Len(t, req.Data, 1)
	assert.Equal(t, fixture.SiteId, req.Data[0].SiteIdAlias)
}
