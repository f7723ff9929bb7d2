package lumimonitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the monitor's running state for scraping.
type Metrics struct {
	IntegratedLumi prometheus.Gauge
	SliceClusters  prometheus.Gauge
	SlicesFlushed  prometheus.Counter
	MissingLumi    prometheus.Counter
}

// NewMetrics registers the monitor metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IntegratedLumi: f.NewGauge(prometheus.GaugeOpts{
			Name: "trackdqm_lumi_integrated",
			Help: "Integrated luminosity over the flushed luminosity blocks",
		}),
		SliceClusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "trackdqm_lumi_last_block_clusters",
			Help: "Pixel clusters counted in the most recently flushed luminosity block",
		}),
		SlicesFlushed: f.NewCounter(prometheus.CounterOpts{
			Name: "trackdqm_lumi_blocks_flushed_total",
			Help: "Luminosity blocks flushed into monitor elements",
		}),
		MissingLumi: f.NewCounter(prometheus.CounterOpts{
			Name: "trackdqm_lumi_blocks_missing_record_total",
			Help: "Luminosity blocks that ended without a luminosity record",
		}),
	}
}

// ObserveSlice records a flushed slice.
func (m *Metrics) ObserveSlice(rec SliceRecord) {
	if m != nil {
		m.IntegratedLumi.Set(rec.IntegratedLumi)
		m.SliceClusters.Set(float64(rec.Clusters))
		m.SlicesFlushed.Inc()
	}
}

// IncrementMissingLumi counts a block without a luminosity record.
func (m *Metrics) IncrementMissingLumi() {
	if m != nil {
		m.MissingLumi.Inc()
	}
}
