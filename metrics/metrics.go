package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var EventsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tutor_query_events_processed_total",
		Help: "Total number of domain events applied to the projection",
	},
	[]string{"event"},
)

var EventFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tutor_query_event_failures_total",
		Help: "Total number of domain events that failed to apply",
	},
	[]string{"event"},
)

var QueryDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "tutor_query_search_duration_seconds",
		Help:    "Latency of ranked tutor searches",
		Buckets: prometheus.DefBuckets,
	},
)

func Init() {
	prometheus.MustRegister(EventsProcessed, EventFailures, QueryDuration)
}
