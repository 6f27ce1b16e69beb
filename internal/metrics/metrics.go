// Package metrics exposes a small Prometheus registry for durad's
// operation counts and structural gauges, grounded on the pack's
// prometheus/client_golang usage and the teacher's Engine.Stats
// reporting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps a private prometheus.Registry so durad doesn't
// pollute the global default registry.
type Registry struct {
	reg *prometheus.Registry

	Completed *prometheus.CounterVec
	Rejected  prometheus.Counter
	QueueSize prometheus.Gauge
	TreeSize  prometheus.Gauge
}

// New builds a Registry with every metric registered and ready to
// serve. Completed is labelled by operation ("enqueue", "dequeue",
// "set", "get", "delete") so a single counter vector covers both
// service flavours.
func New() *Registry {
	reg := prometheus.NewRegistry()

	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duraq_operations_completed_total",
		Help: "Number of operations that completed successfully, by kind.",
	}, []string{"op"})

	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duraq_admission_rejected_total",
		Help: "Number of requests rejected by the admission gate.",
	})

	queueSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duraq_queue_size",
		Help: "Current number of entries in the queue sequence.",
	})

	treeSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duraq_tree_size",
		Help: "Current number of live keys in the B+ tree index.",
	})

	reg.MustRegister(completed, rejected, queueSize, treeSize)

	return &Registry{
		reg:       reg,
		Completed: completed,
		Rejected:  rejected,
		QueueSize: queueSize,
		TreeSize:  treeSize,
	}
}

// Registerer exposes the underlying registry for promhttp.HandlerFor.
func (r *Registry) Registerer() *prometheus.Registry { return r.reg }
