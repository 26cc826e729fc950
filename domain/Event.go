package domain

import (
	"encoding/json"
	"fmt"
)

// Event represents an enum of Event.
type Event uint

const (
	// client -> server
	EventAnalyzeNegative Event = iota
	EventBatchAnalyzeNegative
	EventGetCacheStats
	EventClearCache
	EventPredict
	// server -> client
	EventConnectionStatus
	EventAnalyzeResult
	EventBatchAnalyzeResult
	EventCacheStats
	EventCacheCleared
	EventResult
	EventError
)

// Value returns the value of the enum.
func (op Event) Value() any {
	if op >= Event(len(EventValues)) {
		return nil
	}
	return EventValues[op]
}

// String returns the wire name of the event.
func (op Event) String() string {
	if v, ok := op.Value().(string); ok {
		return v
	}
	return fmt.Sprintf("event(%d)", uint(op))
}

func (op Event) MarshalJSON() ([]byte, error) {
	v := op.Value()
	if v == nil {
		return nil, fmt.Errorf("unknown event %d", uint(op))
	}
	return json.Marshal(v)
}

func (op *Event) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	ev, ok := ValuesToEvent[name]
	if !ok {
		return fmt.Errorf("unknown event %q", name)
	}
	*op = ev
	return nil
}

var EventValues = []any{
	"analyze_negative",
	"batch_analyze_negative",
	"get_cache_stats",
	"clear_cache",
	"predict",
	"connection_status",
	"analyze_result",
	"batch_analyze_result",
	"cache_stats",
	"cache_cleared",
	"result",
	"error",
}
var ValuesToEvent = map[any]Event{
	EventValues[EventAnalyzeNegative]:      EventAnalyzeNegative,
	EventValues[EventBatchAnalyzeNegative]: EventBatchAnalyzeNegative,
	EventValues[EventGetCacheStats]:        EventGetCacheStats,
	EventValues[EventClearCache]:           EventClearCache,
	EventValues[EventPredict]:              EventPredict,
	EventValues[EventConnectionStatus]:     EventConnectionStatus,
	EventValues[EventAnalyzeResult]:        EventAnalyzeResult,
	EventValues[EventBatchAnalyzeResult]:   EventBatchAnalyzeResult,
	EventValues[EventCacheStats]:           EventCacheStats,
	EventValues[EventCacheCleared]:         EventCacheCleared,
	EventValues[EventResult]:               EventResult,
	EventValues[EventError]:                EventError,
}
