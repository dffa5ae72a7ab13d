package install

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	transitions *prometheus.CounterVec
	callbacks   *prometheus.HistogramVec
}

// NewMetrics registers the install collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopinstall",
			Name:      "state_transitions_total",
			Help:      "Install state machine transitions.",
		}, []string{"from", "to"}),
		callbacks: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopinstall",
			Name:      "callback_duration_seconds",
			Help:      "Time spent handling OAuth callbacks, by final state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
	}
}
