package materialize

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the metrics collected by the Materializer.
type Metrics struct {
	filesWrittenTotal       prometheus.Counter
	bytesWrittenTotal       prometheus.Counter
	directoriesEnsuredTotal prometheus.Counter
}

// NewMetrics returns a new Metrics instance.
func NewMetrics() Metrics {
	return Metrics{
		filesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixturetree_materialized_files_total",
			Help: "Number of fixture files written.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixturetree_materialized_bytes_total",
			Help: "Number of bytes written to fixture files.",
		}),
		directoriesEnsuredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixturetree_materialized_directories_total",
			Help: "Number of fixture directories ensured to exist.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m Metrics) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, descs)
}

// Collect implements prometheus.Collector.
func (m Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.filesWrittenTotal.Collect(metrics)
	m.bytesWrittenTotal.Collect(metrics)
	m.directoriesEnsuredTotal.Collect(metrics)
}
