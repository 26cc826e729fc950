package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var llmCallsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "negbuzz_llm_calls_count",
	Help: "The number of topic checks sent to the LLM, by provider and outcome",
}, []string{"provider", "outcome"})
