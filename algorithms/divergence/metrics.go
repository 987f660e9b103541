package divergence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonido_divergence_estimates_total",
		Help: "Total number of divergence estimates by result (ok or nan)",
	}, []string{"result"})

	estimateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sonido_divergence_estimate_duration_seconds",
		Help:    "Wall time of divergence estimates, including index construction",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)
