package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "negbuzz_connected_sessions_count",
		Help: "The number of connected websocket sessions",
	})

	eventsReceivedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "negbuzz_events_received_count",
		Help: "The number of events received, by event",
	}, []string{"event"})

	eventsSentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "negbuzz_events_sent_count",
		Help: "The number of events sent, by event",
	}, []string{"event"})
)
