package sentiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sentimentErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "negbuzz_sentiment_errors_count",
	Help: "The number of texts that fell back to neutral",
})
