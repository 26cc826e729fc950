package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RoundTrip(t *testing.T) {
	for name, ev := range ValuesToEvent {
		t.Run(name.(string), func(t *testing.T) {
			data, err := json.Marshal(ev)
			require.NoError(t, err)
			assert.Equal(t, `"`+name.(string)+`"`, string(data))
			var got Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, ev, got)
		})
	}
}

func TestEvent_Unknown(t *testing.T) {
	var ev Event
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &ev))
	_, err := json.Marshal(Event(99))
	assert.Error(t, err)
	assert.Equal(t, "event(99)", Event(99).String())
}

func TestGeneric_HasData(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "no data", in: `{"event":"get_cache_stats"}`, want: false},
		{name: "null data", in: `{"event":"clear_cache","data":null}`, want: false},
		{name: "object", in: `{"event":"analyze_negative","data":{"id":"1"}}`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Generic
			require.NoError(t, json.Unmarshal([]byte(tt.in), &g))
			require.NotNil(t, g.Event)
			assert.Equal(t, tt.want, g.HasData())
		})
	}
}
