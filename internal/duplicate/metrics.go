package duplicate

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	methodClone = "clone"
	methodCopy  = "copy"
)

// Metrics contains the metrics collected by the Duplicator.
type Metrics struct {
	filesDuplicatedTotal *prometheus.CounterVec
	cloneFallbacksTotal  prometheus.Counter
}

// NewMetrics returns a new Metrics instance.
func NewMetrics() Metrics {
	return Metrics{
		filesDuplicatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixturetree_duplicated_files_total",
			Help: "Number of files duplicated into forked fixtures by method.",
		}, []string{"method"}),
		cloneFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixturetree_clone_fallbacks_total",
			Help: "Number of tree duplications that fell back to copying because cloning is not supported.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m Metrics) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, descs)
}

// Collect implements prometheus.Collector.
func (m Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.filesDuplicatedTotal.Collect(metrics)
	m.cloneFallbacksTotal.Collect(metrics)
}
