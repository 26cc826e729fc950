package harness

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by session handlers and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T) (*adapters.MockAdapter, string) {
	adapter := adapters.NewMockAdapter()
	httpServer := httptest.NewServer(core.NewServer(adapter, 2))
	t.Cleanup(httpServer.Close)
	return adapter, "ws" + strings.TrimPrefix(httpServer.URL, "http")
}

func TestRunner_Smoke(t *testing.T) {
	adapter, url := newTestServer(t)
	var out syncBuffer
	runner := NewRunner(core.NewDialer("smoke-test", "", 2), DefaultFixture(), &out)
	runner.Linger = 500 * time.Millisecond

	scenario := SmokeScenario()
	for i := range scenario.Steps {
		// same order, compressed timeline
		scenario.Steps[i].At = time.Duration(i) * 50 * time.Millisecond
	}
	require.NoError(t, runner.Run(context.Background(), url, scenario))

	output := out.String()
	assert.Contains(t, output, "Connected to server: "+url)
	assert.Contains(t, output, `Connection status: {"status":"connected","sid":"`)
	assert.Contains(t, output, "1. Testing single analyze (no cache)...")
	assert.Contains(t, output, "5. Clearing cache...")
	assert.Contains(t, output, "Analyze result:\n   - Processing time: 0s\n   - Cache hit rate: 0%")
	assert.Contains(t, output, "   - Cache hit rate: 50%")
	assert.Contains(t, output, "Batch analyze result:\n   - Count: 3")
	assert.Contains(t, output, "Cache stats: {")
	assert.Contains(t, output, `Cache cleared: {"message":"Cache cleared successfully"}`)
	assert.Contains(t, output, "Closing socket connection...")
	assert.Equal(t, []string{"AnalyzeNegative", "AnalyzeNegative", "BatchAnalyzeNegative", "CacheStats", "ClearCache"},
		adapter.CallsSnapshot())
}

func TestRunner_Predict(t *testing.T) {
	_, url := newTestServer(t)
	var out syncBuffer
	runner := NewRunner(core.NewDialer("smoke-test", "", 2), DefaultFixture(), &out)
	runner.Linger = 300 * time.Millisecond

	require.NoError(t, runner.Run(context.Background(), url, PredictScenario()))
	assert.Contains(t, out.String(), `Result: {"results":[{"id":"7521631307152084231_3"`)
}

func TestRunner_ConnectError(t *testing.T) {
	httpServer := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	httpServer.Close()

	var out syncBuffer
	runner := NewRunner(core.NewDialer("smoke-test", "", 2), DefaultFixture(), &out)
	runner.BackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	require.Error(t, runner.Run(context.Background(), url, SmokeScenario()))
	assert.Contains(t, out.String(), "Connection error: ")
}

func TestRunner_Interrupted(t *testing.T) {
	_, url := newTestServer(t)
	var out syncBuffer
	runner := NewRunner(core.NewDialer("smoke-test", "", 2), DefaultFixture(), &out)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, url, SmokeScenario())
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Contains(t, out.String(), "1. Testing single analyze (no cache)...")
	assert.NotContains(t, out.String(), "2. Testing single analyze (with cache)...")
	assert.Contains(t, out.String(), "Closing socket connection...")
}
