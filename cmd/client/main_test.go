package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeCommand(t *testing.T) {
	adapter := adapters.NewMockAdapter()
	server := httptest.NewServer(core.NewServer(adapter, 2))
	defer server.Close()

	scenario := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`
name: quick
steps:
  - at: 0s
    label: analyze
    event: analyze_negative
    payload: fixture
  - at: 50ms
    label: stats
    event: get_cache_stats
`), 0o600))

	root := newRootCommand()
	root.SetArgs([]string{"smoke",
		"--config", "../../configuration/client",
		"--url", "ws" + strings.TrimPrefix(server.URL, "http"),
		"--scenario", scenario,
		"--linger", "300ms",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, []string{"AnalyzeNegative", "CacheStats"}, adapter.CallsSnapshot())
	assert.Equal(t, "smoke-test", cfg.Client.ClientName)
}

func TestCommands(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{{"smoke"}, {"predict"}, {"load", "http"}, {"load", "socket"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
