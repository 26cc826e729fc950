package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/negbuzz/negbuzz/domain"
)

const missing = "<nil>"

type printFunc func(w io.Writer, data json.RawMessage)

// printers lists what is shown for each inbound event. Fields are looked up
// optimistically, a missing field prints as <nil>.
var printers = map[domain.Event]printFunc{
	domain.EventConnectionStatus: printWhole("Connection status:"),
	domain.EventAnalyzeResult: printFields("Analyze result:", []field{
		{"Processing time", "processing_time", "s"},
		{"Cache hit rate", "cache_stats.hit_rate", "%"},
		{"Contains topic", "contains_topic", ""},
		{"Should call LLM", "should_call_llm", ""},
	}),
	domain.EventBatchAnalyzeResult: printFields("Batch analyze result:", []field{
		{"Count", "count", ""},
		{"Processing time", "processing_time", "s"},
		{"Cache hit rate", "cache_stats.hit_rate", "%"},
	}),
	domain.EventCacheStats:   printWhole("Cache stats:"),
	domain.EventCacheCleared: printWhole("Cache cleared:"),
	domain.EventResult:       printWhole("Result:"),
	domain.EventError:        printWhole("Server error:"),
}

type field struct {
	label  string
	path   string
	suffix string
}

func printWhole(title string) printFunc {
	return func(w io.Writer, data json.RawMessage) {
		if len(data) == 0 {
			_, _ = fmt.Fprintln(w, title, missing)
			return
		}
		_, _ = fmt.Fprintln(w, title, string(data))
	}
}

func printFields(title string, fields []field) printFunc {
	return func(w io.Writer, data json.RawMessage) {
		var doc any
		// an undecodable payload prints every field as missing
		_ = json.Unmarshal(data, &doc)
		_, _ = fmt.Fprintln(w, title)
		for _, f := range fields {
			_, _ = fmt.Fprintf(w, "   - %s: %s%s\n", f.label, lookup(doc, f.path), f.suffix)
		}
	}
}

// lookup follows a dotted path through decoded JSON objects.
func lookup(doc any, path string) string {
	current := doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return missing
		}
		if current, ok = obj[key]; !ok {
			return missing
		}
	}
	if current == nil {
		return missing
	}
	return fmt.Sprint(current)
}
