// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	AmendmentsTotal  prometheus.Counter
	SyncFailures     prometheus.Counter
	GapAdjustments   prometheus.Counter
	PipelineDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_submissions_total",
			Help: "Settlement submissions by outcome.",
		}, []string{"status"}),
		AmendmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_amendments_total",
			Help: "Accepted settlement amendments.",
		}),
		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_inventory_sync_failures_total",
			Help: "Best-effort inventory pushes that failed after a successful settlement write.",
		}),
		GapAdjustments: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_gap_adjustments_total",
			Help: "Fields whose closing stock was corrected for counting-time skew.",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_pipeline_duration_seconds",
			Help:    "Wall time of the full submission pipeline.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
