package sentiment

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/negbuzz/negbuzz/config"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Classify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantHit int32
	}{
		{name: "negative", status: http.StatusOK, body: `{"predicted_label":"NEGATIVE"}`, want: domain.SentimentNegative, wantHit: 1},
		{name: "missing label", status: http.StatusOK, body: `{}`, want: domain.SentimentNeutral, wantHit: 1},
		{name: "server error is not retried", status: http.StatusInternalServerError, body: `oops`, want: domain.SentimentNeutral, wantHit: 1},
		{name: "bad json", status: http.StatusOK, body: `[`, want: domain.SentimentNeutral, wantHit: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				var req predictRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Sữa hỏng", req.Text)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(config.Sentiment{Url: srv.URL, Timeout: time.Second, Attempts: 3, Wait: time.Millisecond})
			assert.Equal(t, tt.want, c.Classify(context.TODO(), "Sữa hỏng"))
			assert.Equal(t, tt.wantHit, hits.Load())
		})
	}
}

func TestClient_Classify_RetriesTransportErrors(t *testing.T) {
	// a closed listener refuses connections
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := NewClient(config.Sentiment{Url: "http://" + addr + "/predict", Timeout: time.Second, Attempts: 3, Wait: 10 * time.Millisecond})
	start := time.Now()
	assert.Equal(t, domain.SentimentNeutral, c.Classify(context.TODO(), "text"))
	// two waits between three attempts
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestClient_Classify_Timeout(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"predicted_label":"negative"}`))
	}))
	defer srv.Close()

	c := NewClient(config.Sentiment{Url: srv.URL, Timeout: 50 * time.Millisecond, Attempts: 2, Wait: time.Millisecond})
	assert.Equal(t, domain.SentimentNeutral, c.Classify(context.TODO(), "text"))
	assert.Equal(t, int32(2), hits.Load())
}
