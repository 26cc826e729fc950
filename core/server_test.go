package core

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/kinbiko/jsonassert"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var vinamilk = domain.ContentItem{
	Id:                "1",
	TopicName:         "Vinamilk",
	Type:              "fbPageTopic",
	TopicId:           "topic-1",
	SiteId:            "site-1",
	SiteName:          "Tin tức",
	Title:             "Sữa Vinamilk bị thu hồi",
	Content:           "Người tiêu dùng phản ánh sữa có mùi lạ",
	TotalInteractions: 120,
}

type testConn struct {
	client *Session
	server *Server
	events chan domain.Generic
	served chan struct{}
}

// newTestConn runs a server session on one end of a pipe and a client
// session on the other, every inbound client event lands in events.
func newTestConn(t *testing.T, adapter adapters.Adapter) *testConn {
	serverConn, clientConn := net.Pipe()
	tc := &testConn{
		server: NewServer(adapter, 2),
		events: make(chan domain.Generic, 10),
		served: make(chan struct{}),
	}
	ctx := context.Background()
	go func() {
		defer close(tc.served)
		tc.server.Serve(ctx, serverConn, domain.SessionIdentifier{
			SessionId:  "session-1",
			ClientName: "test",
		})
	}()
	client, err := NewClientSession(clientConn, domain.SessionIdentifier{SessionId: "client-1"}, 2)
	require.NoError(t, err)
	for _, event := range domain.ValuesToEvent {
		client.On(event, func(_ context.Context, generic domain.Generic) error {
			tc.events <- generic
			return nil
		})
	}
	tc.client = client
	go func() {
		_ = client.Start(ctx)
	}()
	return tc
}

func (tc *testConn) next(t *testing.T) domain.Generic {
	select {
	case generic := <-tc.events:
		return generic
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return domain.Generic{}
}

func (tc *testConn) close(t *testing.T) {
	require.NoError(t, tc.client.Stop(context.Background()))
	select {
	case <-tc.served:
	case <-time.After(5 * time.Second):
		t.Fatal("server session did not stop")
	}
}

func TestServer_ConnectionStatus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	tc := newTestConn(t, adapters.NewMockAdapter())

	generic := tc.next(t)
	require.NotNil(t, generic.Event)
	assert.Equal(t, domain.EventConnectionStatus, *generic.Event)
	assert.NotEmpty(t, generic.MsgId)
	jsonassert.New(t).Assertf(string(generic.Data), `{"status":"connected","sid":"session-1"}`)
	assert.Equal(t, 1, tc.server.Sessions())

	tc.close(t)
	assert.Equal(t, 0, tc.server.Sessions())
}

func TestServer_AnalyzeNegative(t *testing.T) {
	adapter := adapters.NewMockAdapter()
	tc := newTestConn(t, adapter)
	defer tc.close(t)
	tc.next(t) // connection_status

	ctx := context.Background()
	require.NoError(t, tc.client.Emit(ctx, domain.EventAnalyzeNegative, vinamilk))
	generic := tc.next(t)
	require.Equal(t, domain.EventAnalyzeResult, *generic.Event)
	var first domain.AnalyzeResult
	require.NoError(t, json.Unmarshal(generic.Data, &first))
	assert.Equal(t, "1", first.Id)
	assert.False(t, first.Cached)

	require.NoError(t, tc.client.Emit(ctx, domain.EventAnalyzeNegative, vinamilk))
	generic = tc.next(t)
	var second domain.AnalyzeResult
	require.NoError(t, json.Unmarshal(generic.Data, &second))
	assert.True(t, second.Cached)
	assert.Equal(t, float64(50), second.CacheStats.HitRate)
}

func TestServer_ReplyKeepsMsgId(t *testing.T) {
	tc := newTestConn(t, adapters.NewMockAdapter())
	defer tc.close(t)
	tc.next(t)

	ctx := context.WithValue(context.Background(), domain.ContextKeyMsgId, "msg-42")
	require.NoError(t, tc.client.Emit(ctx, domain.EventGetCacheStats, nil))
	generic := tc.next(t)
	assert.Equal(t, domain.EventCacheStats, *generic.Event)
	assert.Equal(t, "msg-42", generic.MsgId)
	jsonassert.New(t).Assertf(string(generic.Data), `{
		"cache_size": 0, "max_size": 1000, "ttl": 3600, "usage_percent": 0,
		"hits": 0, "misses": 0, "hit_rate": 0, "evictions": 0
	}`)
}

func TestServer_BatchAndClear(t *testing.T) {
	adapter := adapters.NewMockAdapter()
	tc := newTestConn(t, adapter)
	defer tc.close(t)
	tc.next(t)

	ctx := context.Background()
	items := []domain.ContentItem{vinamilk, vinamilk, vinamilk}
	items[1].Id, items[1].Title = "item_2", "Tiêu đề 2"
	items[2].Id, items[2].Type = "item_3", "fbPageComment"
	require.NoError(t, tc.client.Emit(ctx, domain.EventBatchAnalyzeNegative, items))
	generic := tc.next(t)
	require.Equal(t, domain.EventBatchAnalyzeResult, *generic.Event)
	var batch domain.BatchAnalyzeResult
	require.NoError(t, json.Unmarshal(generic.Data, &batch))
	require.Equal(t, 3, batch.Count)
	assert.Equal(t, "item_2", batch.Results[1].Id)
	assert.Equal(t, domain.LogLevelComment, batch.Results[2].LogLevel)

	require.NoError(t, tc.client.Emit(ctx, domain.EventClearCache, nil))
	generic = tc.next(t)
	require.Equal(t, domain.EventCacheCleared, *generic.Event)
	jsonassert.New(t).Assertf(string(generic.Data), `{"message":"Cache cleared successfully"}`)
	assert.Equal(t, []string{"BatchAnalyzeNegative", "ClearCache"}, adapter.CallsSnapshot())
}

func TestServer_Predict(t *testing.T) {
	tc := newTestConn(t, adapters.NewMockAdapter())
	defer tc.close(t)
	tc.next(t)

	empty := domain.ContentItem{Id: "2"}
	require.NoError(t, tc.client.Emit(context.Background(), domain.EventPredict,
		domain.PredictRequest{Data: []domain.ContentItem{vinamilk, empty}}))
	generic := tc.next(t)
	require.Equal(t, domain.EventResult, *generic.Event)
	var response domain.PredictResponse
	require.NoError(t, json.Unmarshal(generic.Data, &response))
	require.Len(t, response.Results, 2)
	assert.Equal(t, domain.SentimentNeutral, response.Results[0].Sentiment)
	assert.Equal(t, domain.PredictErrorEmptyText, response.Results[1].Error)
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		event   domain.Event
		payload any
		fail    error
		message string
	}{
		{
			name:    "invalid item",
			event:   domain.EventAnalyzeNegative,
			payload: "not an item",
			message: "invalid item: json: cannot unmarshal string",
		},
		{
			name:    "invalid batch",
			event:   domain.EventBatchAnalyzeNegative,
			payload: vinamilk,
			message: "invalid items: json: cannot unmarshal object",
		},
		{
			name:    "missing payload",
			event:   domain.EventPredict,
			message: "invalid request: missing payload",
		},
		{
			name:    "adapter failure",
			event:   domain.EventClearCache,
			fail:    errors.New("cache is gone"),
			message: "cache is gone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := adapters.NewMockAdapter()
			adapter.Fail = tt.fail
			tc := newTestConn(t, adapter)
			defer tc.close(t)
			tc.next(t)

			require.NoError(t, tc.client.Emit(context.Background(), tt.event, tt.payload))
			generic := tc.next(t)
			require.Equal(t, domain.EventError, *generic.Event)
			var msg domain.ErrorMessage
			require.NoError(t, json.Unmarshal(generic.Data, &msg))
			assert.Equal(t, tt.event.String(), msg.Event)
			assert.Contains(t, msg.Message, tt.message)
		})
	}
}

func TestServer_SkipsMalformedFrames(t *testing.T) {
	tc := newTestConn(t, adapters.NewMockAdapter())
	defer tc.close(t)
	tc.next(t)

	for _, frame := range []string{`not json`, `{"event":"unknown"}`, `{"data":{}}`} {
		require.NoError(t, tc.client.write(ws.OpText, []byte(frame)))
	}
	// the session survives and still answers
	require.NoError(t, tc.client.Emit(context.Background(), domain.EventGetCacheStats, nil))
	generic := tc.next(t)
	assert.Equal(t, domain.EventCacheStats, *generic.Event)
}

func TestServer_Shutdown(t *testing.T) {
	tc := newTestConn(t, adapters.NewMockAdapter())
	tc.next(t)

	require.NoError(t, tc.server.Shutdown(context.Background()))
	select {
	case <-tc.served:
	case <-time.After(5 * time.Second):
		t.Fatal("server session did not stop")
	}
	_ = tc.client.Stop(context.Background())
}
