// Package divergence estimates the Kullback-Leibler divergence between two
// sampled distributions from nearest-neighbor distances.
//
// References:
// - Wang, Q., Kulkarni, S.R., Verdú, S. (2009). "Divergence estimation for multidimensional densities via k-nearest-neighbor distances"
package divergence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-entropy/algorithms/common"
	"github.com/RyanBlaney/sonido-entropy/algorithms/pointset"
	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/config"
	"github.com/RyanBlaney/sonido-entropy/logging"
	"github.com/RyanBlaney/sonido-entropy/signal"
)

// ErrTooFewSamples is returned when X holds a single sample, which has no
// neighbor within X.
var ErrTooFewSamples = errors.New("divergence: X needs at least two samples")

// DivergenceWKV estimates D(X || Y) in nats with the Wang-Kulkarni-Verdú
// estimator:
//
//	D = d/n * sum_i ln(nu_i / rho_i) + ln(m / (n-1))
//
// where n and m are the sample counts of X and Y, rho_i is the distance of
// the i-th X sample to its nearest neighbor in X and nu_i its distance to the
// nearest Y sample. When Y holds copies of an X sample, nu_i is the distance
// to the nearest Y sample that does not coincide with it, so D(X || X) tends
// to zero. Samples whose rho_i is zero add nothing to the sum but still count
// in n. The result is NaN when either ensemble is empty or every sample was
// skipped. Distances use cfg's norm, searches its worker count and relative
// error; KNearest is not used.
func DivergenceWKV(x, y []*signal.Signal, cfg config.EstimatorConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return math.NaN(), fmt.Errorf("invalid config: %w", err)
	}
	norm, err := cfg.NormType()
	if err != nil {
		return math.NaN(), err
	}

	dx, err := signal.CommonDimension(x)
	if err != nil {
		return math.NaN(), fmt.Errorf("x: %w", err)
	}
	dy, err := signal.CommonDimension(y)
	if err != nil {
		return math.NaN(), fmt.Errorf("y: %w", err)
	}
	if len(x) > 0 && len(y) > 0 && dx != dy {
		return math.NaN(), fmt.Errorf("%w: x has %d dimensions, y has %d", signal.ErrDimensionMismatch, dx, dy)
	}

	xSamples, ySamples := signal.TotalSamples(x), signal.TotalSamples(y)
	if xSamples == 0 || ySamples == 0 {
		return math.NaN(), nil
	}
	if xSamples == 1 {
		return math.NaN(), ErrTooFewSamples
	}

	start := time.Now()
	logger := logging.WithFields(logging.Fields{"component": "divergence"})

	xs, err := pointset.New(x, pointset.Options{Norm: norm, Eager: true})
	if err != nil {
		return math.NaN(), fmt.Errorf("indexing x: %w", err)
	}
	ys, err := pointset.New(y, pointset.Options{Norm: norm, Eager: true})
	if err != nil {
		return math.NaN(), fmt.Errorf("indexing y: %w", err)
	}

	points := xs.Points()
	rho := spatial.KthNearestAll(xs.Index(), points, 1, cfg.MaxRelativeError, cfg.Workers)

	sum, accepted := common.ParallelSum(len(points), cfg.Workers, func(i int) (float64, bool) {
		if !rho[i].Found() || rho[i].Distance <= 0 {
			return 0, false
		}
		nu, ok := nearestDistinct(ys.Index(), points[i].Coords, cfg.MaxRelativeError)
		if !ok {
			return 0, false
		}
		// squared distances: ln(nu/rho) = ln(nu²/rho²)/2
		return math.Log(nu.Distance / rho[i].Distance), true
	})

	fields := logging.Fields{
		"x_samples": xSamples,
		"y_samples": ySamples,
		"accepted":  accepted,
	}
	estimateDuration.Observe(time.Since(start).Seconds())
	if accepted == 0 {
		estimatesTotal.WithLabelValues("nan").Inc()
		logger.Warn("divergence undefined: no accepted points", fields)
		return math.NaN(), nil
	}

	d := float64(xs.Dimension())
	value := d/(2*float64(xSamples))*sum + math.Log(float64(ySamples)/float64(xSamples-1))

	estimatesTotal.WithLabelValues("ok").Inc()
	fields["value"] = value
	logger.Debug("divergence estimate finished", fields)
	return value, nil
}

// nearestDistinct returns the nearest point of idx at a positive distance
// from q, walking past points that coincide with q.
func nearestDistinct(idx spatial.Index, q []float64, maxRelativeError float64) (spatial.Neighbor, bool) {
	for k := 1; ; k++ {
		n, ok := idx.KthNearest(q, k, -1, maxRelativeError)
		if !ok {
			return spatial.NotFound(), false
		}
		if n.Distance > 0 {
			return n, true
		}
	}
}
