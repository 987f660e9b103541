package entropy

import (
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-entropy/algorithms/common"
	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/algorithms/pointset"
	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/logging"
	"github.com/RyanBlaney/sonido-entropy/signal"
)

// Term is a weighted marginal subspace of a joint space: the channels
// [DimBegin, DimEnd) of the joint signals.
type Term struct {
	DimBegin int
	DimEnd   int
	Weight   float64
}

// space is a joint point set together with its marginal projections.
type space struct {
	joint     *pointset.WindowedPointSet
	marginals []*pointset.WindowedPointSet
	weights   []float64
}

func newSpace(signals []*signal.Signal, terms []Term, norm spatial.Norm, eager bool) (*space, error) {
	joint, err := pointset.New(signals, pointset.Options{Norm: norm, Eager: eager})
	if err != nil {
		return nil, err
	}

	sp := &space{joint: joint}
	for _, term := range terms {
		m, err := joint.Marginal(term.DimBegin, term.DimEnd)
		if err != nil {
			return nil, err
		}
		sp.marginals = append(sp.marginals, m)
		sp.weights = append(sp.weights, term.Weight)
	}
	return sp, nil
}

func (sp *space) setTimeWindow(begin, end int) error {
	if err := sp.joint.SetTimeWindow(begin, end); err != nil {
		return err
	}
	for _, m := range sp.marginals {
		if err := m.SetTimeWindow(begin, end); err != nil {
			return err
		}
	}
	return nil
}

// estimate describes one estimator for the engine.
type estimate struct {
	name string

	// point maps the squared k-NN distance of an accepted point (and its
	// marginal neighbor counts) to its local contribution.
	point func(dist float64, counts []int, local estimators.Local) float64

	// finish turns the mean contribution into the estimate.
	finish func(mean float64, dim, n int, local estimators.Local) float64
}

// result is the outcome of one pass of the engine.
type result struct {
	value    float64
	samples  int
	accepted int
}

// run evaluates est over the points currently active in sp.
func (e *Estimator) run(sp *space, est estimate) result {
	k := e.cfg.KNearest
	points := sp.joint.Points()
	n := len(points)
	if n == 0 {
		return result{value: math.NaN()}
	}

	local := e.local(k, n)
	neighbors := spatial.KthNearestAll(sp.joint.Index(), points, k, e.cfg.MaxRelativeError, e.cfg.Workers)

	sum, accepted := common.ParallelSum(n, e.cfg.Workers, func(i int) (float64, bool) {
		nb := neighbors[i]
		if !nb.Found() || nb.Distance <= 0 {
			return 0, false
		}

		var counts []int
		if len(sp.marginals) > 0 {
			id := points[i].ID
			counts = make([]int, len(sp.marginals))
			for j, m := range sp.marginals {
				counts[j] = m.Index().CountWithin(m.Point(id).Coords, nb.Distance, id)
			}
		}
		return est.point(nb.Distance, counts, local), true
	})

	rejectedPoints.WithLabelValues(est.name).Add(float64(n - accepted))
	if accepted == 0 {
		return result{value: math.NaN(), samples: n}
	}
	value := est.finish(sum/float64(accepted), sp.joint.Dimension(), n, local)
	return result{value: value, samples: n, accepted: accepted}
}

// single runs est once over every sample of signals.
func (e *Estimator) single(signals []*signal.Signal, terms []Term, norm spatial.Norm, est estimate) (float64, error) {
	if signal.TotalSamples(signals) == 0 {
		return math.NaN(), nil
	}

	start := time.Now()
	sp, err := newSpace(signals, terms, norm, true)
	if err != nil {
		return math.NaN(), fmt.Errorf("%s: %w", est.name, err)
	}

	res := e.run(sp, est)
	e.record(est.name, res, time.Since(start))
	return res.value, nil
}

// temporal runs est once per time step of signals over the window
// [t-r, t+r+1), r being the configured radius. The result is a
// one-dimensional signal with one sample per time step; each sample is
// stamped with the start of its window, so the result starts at
// begin - r.
func (e *Estimator) temporal(signals []*signal.Signal, terms []Term, norm spatial.Norm, est estimate) (*signal.Signal, error) {
	begin, end := signal.Span(signals)
	r := e.cfg.TimeWindowRadius
	values := make([]float64, end-begin)
	if len(values) == 0 {
		return signal.Empty(1, begin-r), nil
	}

	start := time.Now()
	sp, err := newSpace(signals, terms, norm, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", est.name, err)
	}

	undefined := 0
	for t := begin; t < end; t++ {
		if err := sp.setTimeWindow(t-r, t+r+1); err != nil {
			return nil, fmt.Errorf("%s: %w", est.name, err)
		}
		res := e.run(sp, est)
		values[t-begin] = res.value
		if math.IsNaN(res.value) {
			undefined++
		}
	}

	name := "temporal_" + est.name
	estimatesTotal.WithLabelValues(name, outcome(undefined == len(values))).Inc()
	estimateDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	fields := logging.Fields{
		"estimator": name,
		"steps":     len(values),
		"undefined": undefined,
		"radius":    r,
	}
	if undefined > 0 {
		e.logger.Warn("temporal estimate undefined for some windows", fields)
	} else {
		e.logger.Debug("temporal estimate finished", fields)
	}

	out, err := signal.FromData(len(values), 1, values)
	if err != nil {
		return nil, err
	}
	return out.WithTimeOffset(begin - r), nil
}

func (e *Estimator) record(name string, res result, elapsed time.Duration) {
	undefined := math.IsNaN(res.value)
	estimatesTotal.WithLabelValues(name, outcome(undefined)).Inc()
	estimateDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	fields := logging.Fields{
		"estimator": name,
		"samples":   res.samples,
		"accepted":  res.accepted,
		"k":         e.cfg.KNearest,
	}
	if undefined {
		e.logger.Warn("estimate undefined: no accepted points", fields)
		return
	}
	fields["value"] = res.value
	e.logger.Debug("estimate finished", fields)
}

func outcome(undefined bool) string {
	if undefined {
		return "nan"
	}
	return "ok"
}
