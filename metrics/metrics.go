// Package metrics exposes ring activity as Prometheus series on a private
// registry. The ring itself never logs; its insert hook feeds these counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"isrqueue/ring"
	"isrqueue/utils"
)

// Metrics holds the series for one ring pair.
type Metrics struct {
	Inserts    prometheus.Counter
	Removes    prometheus.Counter
	Overflows  prometheus.Counter // producer found the ring full and backed off
	Occupancy  prometheus.Gauge
	DrainBatch prometheus.Histogram
	SlotWrites *prometheus.CounterVec // labels: slot, only when slot tracking is on

	registry *prometheus.Registry
}

// New registers and returns all series under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		Inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Entries inserted into the forward ring",
		}),
		Removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removes_total",
			Help:      "Entries removed by the consumer",
		}),
		Overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "full_backoffs_total",
			Help:      "Producer passes that found no free slot",
		}),
		Occupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occupancy",
			Help:      "Last sampled ring occupancy",
		}),
		DrainBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_batch_size",
			Help:      "Entries removed per consumer snapshot",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SlotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_writes_total",
			Help:      "Inserts per ring slot",
		}, []string{"slot"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.Inserts, m.Removes, m.Overflows, m.Occupancy, m.DrainBatch, m.SlotWrites)
	return m
}

// InsertHook returns a ring.InsertHook counting inserts. With perSlot the
// slot index is also recorded as a label, which allocates; keep it for
// short diagnostic runs.
func (m *Metrics) InsertHook(perSlot bool) ring.InsertHook {
	if !perSlot {
		return func(uint16, *ring.Entry) {
			m.Inserts.Inc()
		}
	}
	return func(slot uint16, _ *ring.Entry) {
		m.Inserts.Inc()
		m.SlotWrites.WithLabelValues(utils.Utoa(uint64(slot))).Inc()
	}
}

// ObserveDrain records one consumer batch.
func (m *Metrics) ObserveDrain(n int) {
	m.Removes.Add(float64(n))
	m.DrainBatch.Observe(float64(n))
}

// Sample records the current occupancy of r.
func (m *Metrics) Sample(r *ring.Ring) {
	m.Occupancy.Set(float64(r.Count()))
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
