package insight

import (
	"github.com/prometheus/client_golang/prometheus"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propinsight",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI insight calls by outcome (ok, error, rejected).",
		},
		[]string{"outcome"},
	)
	breakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "propinsight",
		Subsystem:   "ai",
		Name:        "circuit_breaker_state",
		Help:        "AI insight circuit breaker state: 0 closed, 1 half-open, 2 open.",
		ConstLabels: prometheus.Labels{"breaker": breakerName},
	})
)

// Collectors returns the Prometheus collectors owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestsTotal, breakerState}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
