package domain

import (
	"encoding/json"
	"testing"

	"github.com/kinbiko/jsonassert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentItem_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ContentItem
	}{
		{
			name: "snake case site",
			in:   `{"id":" 1 ","site_id":"s","site_name":"baothegioisua","title":" t "}`,
			want: ContentItem{Id: "1", SiteId: "s", SiteName: "baothegioisua", Title: "t"},
		},
		{
			name: "camel case site",
			in:   `{"id":"2","siteId":"s2","siteName":"n2","type":"NEWS_TOPIC","total_interactions":57}`,
			want: ContentItem{Id: "2", SiteId: "s2", SiteName: "n2", Type: "NEWS_TOPIC", TotalInteractions: 57},
		},
		{
			name: "snake case wins",
			in:   `{"site_id":"a","siteId":"b"}`,
			want: ContentItem{SiteId: "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item ContentItem
			require.NoError(t, json.Unmarshal([]byte(tt.in), &item))
			assert.Equal(t, tt.want, item.Normalize())
		})
	}
}

func TestContentItem_IsEmptyText(t *testing.T) {
	assert.True(t, ContentItem{Id: "x"}.IsEmptyText())
	assert.False(t, ContentItem{Description: "d"}.IsEmptyText())
}

func TestPrediction_MarshalJSON(t *testing.T) {
	ja := jsonassert.New(t)

	data, err := json.Marshal(PredictionError("7", PredictErrorEmptyText))
	require.NoError(t, err)
	ja.Assertf(string(data), `{"id":"7","error":"Empty text"}`)

	data, err = json.Marshal(WorkerError("9", "boom"))
	require.NoError(t, err)
	ja.Assertf(string(data), `{"id":"9","error":"boom","word_cloud":[]}`)

	p := NewPrediction(ContentItem{Id: "8", Type: "NEWS_TOPIC", TotalInteractions: 3}, SentimentNeutral)
	data, err = json.Marshal(p)
	require.NoError(t, err)
	ja.Assertf(string(data), `{
		"id":"8","topic_name":"","topic_id":"","title":"","content":"","description":"",
		"site_name":"","site_id":"","type":"NEWS_TOPIC","input_type":"NEWS_TOPIC",
		"sentiment":"neutral","log_level":0,"reason":"Không phải nội dung tiêu cực.",
		"contains_topic":false,"targeting_topic":false,"crisis_keywords":[],
		"should_call_llm":false,"is_kol":false,"total_interactions":3,"word_cloud":[]
	}`)

	var back Prediction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}
