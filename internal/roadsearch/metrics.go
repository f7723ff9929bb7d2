package roadsearch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the candidate maker.
type Metrics struct {
	CloudsProcessed         prometheus.Counter
	CandidatesProduced      prometheus.Counter
	Failures                *prometheus.CounterVec
	CandidatesPerCollection prometheus.Histogram
}

// NewMetrics registers the candidate maker metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CloudsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "trackdqm_roadsearch_clouds_total",
			Help: "Total clean clouds consumed by the candidate maker",
		}),
		CandidatesProduced: f.NewCounter(prometheus.CounterOpts{
			Name: "trackdqm_roadsearch_candidates_total",
			Help: "Total track candidates produced",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackdqm_roadsearch_failures_total",
			Help: "Candidate collections abandoned, by reason",
		}, []string{"reason"}), // reason: "no_seed", "unknown_detector", "no_geometry", "degenerate_seed", "other"
		CandidatesPerCollection: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trackdqm_roadsearch_candidates_per_collection",
			Help:    "Number of candidates produced per input collection",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		}),
	}
}

// ObserveClouds records the size of an input collection.
func (m *Metrics) ObserveClouds(n int) {
	if m != nil {
		m.CloudsProcessed.Add(float64(n))
	}
}

// ObserveCandidates records the size of an output collection.
func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidatesProduced.Add(float64(n))
		m.CandidatesPerCollection.Observe(float64(n))
	}
}

// IncrementFailure records an abandoned collection.
func (m *Metrics) IncrementFailure(reason string) {
	if m != nil {
		m.Failures.WithLabelValues(reason).Inc()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoSeed):
		return "no_seed"
	case errors.Is(err, ErrUnknownDetector):
		return "unknown_detector"
	case errors.Is(err, ErrNoGeometry):
		return "no_geometry"
	case errors.Is(err, ErrDegenerateSeed):
		return "degenerate_seed"
	}
	return "other"
}
