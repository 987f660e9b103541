package pointset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	windowUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sonido_pointset_window_updates_total",
		Help: "Total number of time window moves across all point sets",
	})

	pointsReindexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonido_pointset_points_reindexed_total",
		Help: "Total number of points inserted into or removed from point set indexes",
	}, []string{"op"})
)
