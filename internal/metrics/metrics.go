package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations *prometheus.CounterVec
}

// New registers the repository counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tributes_repository_operations_total",
			Help: "Repository calls by backend mode, operation and outcome.",
		}, []string{"mode", "op", "outcome"}),
	}
	reg.MustRegister(m.Operations)
	return m
}

// Observe is safe on a nil *Metrics.
func (m *Metrics) Observe(mode, op, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(mode, op, outcome).Inc()
}
