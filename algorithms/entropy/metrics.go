package entropy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonido_entropy_estimates_total",
		Help: "Total number of entropy estimates by estimator and result (ok or nan)",
	}, []string{"estimator", "result"})

	estimateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sonido_entropy_estimate_duration_seconds",
		Help:    "Wall time of entropy estimates, including index construction",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"estimator"})

	rejectedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonido_entropy_rejected_points_total",
		Help: "Total number of points excluded from estimates for a zero or missing k-NN distance",
	}, []string{"estimator"})
)
