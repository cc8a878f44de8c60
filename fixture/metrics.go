package fixture

import (
	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/gitlab-org/fixturetree/internal/duplicate"
	"gitlab.com/gitlab-org/fixturetree/internal/materialize"
)

// Metrics contains the metrics collected by fixtures of a policy. It
// implements prometheus.Collector so that it can be registered with a
// registry of the caller's choice.
type Metrics struct {
	materialize     materialize.Metrics
	duplicate       duplicate.Metrics
	operationsTotal *prometheus.CounterVec
}

// NewMetrics returns a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		materialize: materialize.NewMetrics(),
		duplicate:   duplicate.NewMetrics(),
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixturetree_operations_total",
			Help: "Number of fixture operations by operation and result.",
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operationsTotal.WithLabelValues(operation, result).Inc()
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, descs)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.materialize.Collect(metrics)
	m.duplicate.Collect(metrics)
	m.operationsTotal.Collect(metrics)
}
