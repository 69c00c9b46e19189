package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal    *prometheus.CounterVec
	treeEventsTotal      *prometheus.CounterVec
	publishFailuresTotal prometheus.Counter
	registerOnce         sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the polls API.",
		}, []string{"method", "path", "status"})
		treeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "tree_events_total",
			Help:      "Votes and follow-ups recorded, by event kind.",
		}, []string{"kind"})
		publishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "event_publish_failures_total",
			Help:      "Tree events dropped after exhausting publish retries.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncEvent(kind string) {
	if treeEventsTotal == nil {
		return
	}
	treeEventsTotal.WithLabelValues(kind).Inc()
}

func IncPublishFailure() {
	if publishFailuresTotal == nil {
		return
	}
	publishFailuresTotal.Inc()
}
