package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProducedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_jobs_produced_count",
		Help: "The number of predict jobs pushed on the request queue",
	})

	jobsTimedOutCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_jobs_timed_out_count",
		Help: "The number of predict jobs without a result in time",
	})

	jobsProcessedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_jobs_processed_count",
		Help: "The number of predict jobs answered by the worker",
	})

	jobsFailedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negbuzz_jobs_failed_count",
		Help: "The number of predict jobs the worker could not process",
	})
)
