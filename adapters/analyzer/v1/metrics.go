package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_cache_hits_count",
		Help: "The number of analysis results served from the cache",
	})

	cacheMissesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_cache_misses_count",
		Help: "The number of analyses that went through the filter",
	})

	predictionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "negbuzz_predictions_count",
		Help: "The number of predictions, by sentiment",
	}, []string{"sentiment"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "negbuzz_analysis_duration_seconds",
		Help:    "Time spent grading a single item",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)
