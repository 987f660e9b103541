// Package pointset maintains the sample points of a signal ensemble inside a
// spatial index as a time window slides over them.
//
// Every sample of every signal gets one arena slot whose spatial.Point
// aliases the signal row (restricted to the set's dimension range). A
// window [begin, end) activates the samples whose time stamps fall inside
// it. Moving the window only touches the samples entering or leaving it, so
// a monotone slide costs time proportional to the step, not to the window.
package pointset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/logging"
	"github.com/RyanBlaney/sonido-entropy/signal"
)

var (
	// ErrInvalidWindow is returned by SetTimeWindow when begin > end.
	ErrInvalidWindow = errors.New("pointset: window begin after end")

	// ErrInvalidDimensions is returned for an empty or out-of-range dimension range.
	ErrInvalidDimensions = errors.New("pointset: invalid dimension range")
)

// Options configures a WindowedPointSet.
type Options struct {
	// DimBegin and DimEnd select the channels [DimBegin, DimEnd) used as
	// coordinates. DimEnd == 0 selects through the last channel.
	DimBegin int
	DimEnd   int

	// Norm is the metric of the underlying index.
	Norm spatial.Norm

	// Eager indexes every sample of every signal at construction on a
	// balanced static tree. Without it the set starts with the empty window
	// [0, 0) on a dynamic tree.
	Eager bool
}

// PointRef locates an arena point in its signal.
type PointRef struct {
	Signal int
	Row    int
	Time   int
}

// WindowedPointSet is the set of ensemble samples inside a time window,
// materialized in a spatial index.
//
// SetTimeWindow must not run concurrently with queries against Index().
type WindowedPointSet struct {
	signals   []*signal.Signal
	opts      Options
	dimension int

	base   []int // arena offset of each signal's row 0
	points []spatial.Point

	index    spatial.Index
	active   []*spatial.Point
	position []int    // index into active per arena id, -1 when inactive
	rows     [][2]int // active row interval per signal

	timeBegin int
	timeEnd   int

	logger logging.Logger
}

// New builds a point set over signals, which must share one dimension.
// An empty signal slice yields an empty set.
func New(signals []*signal.Signal, opts Options) (*WindowedPointSet, error) {
	full, err := signal.CommonDimension(signals)
	if err != nil {
		return nil, err
	}

	if opts.DimEnd == 0 {
		opts.DimEnd = full
	}
	unset := len(signals) == 0 && opts.DimBegin == 0 && opts.DimEnd == 0
	if !unset && (opts.DimBegin < 0 || opts.DimEnd <= opts.DimBegin || (len(signals) > 0 && opts.DimEnd > full)) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidDimensions, opts.DimBegin, opts.DimEnd, full)
	}

	ps := &WindowedPointSet{
		signals:   signals,
		opts:      opts,
		dimension: opts.DimEnd - opts.DimBegin,
		base:      make([]int, len(signals)),
		rows:      make([][2]int, len(signals)),
		logger:    logging.WithFields(logging.Fields{"component": "pointset"}),
	}

	total := 0
	for i, s := range signals {
		ps.base[i] = total
		total += s.Samples()
	}

	ps.points = make([]spatial.Point, total)
	ps.position = make([]int, total)
	for i, s := range signals {
		for r := range s.Samples() {
			id := ps.base[i] + r
			ps.points[id] = spatial.Point{ID: id, Coords: s.Row(r)[opts.DimBegin:opts.DimEnd]}
			ps.position[id] = -1
		}
	}

	if opts.Eager {
		if err := ps.indexAll(); err != nil {
			return nil, err
		}
	} else {
		ps.index = spatial.NewTree(ps.dimension, opts.Norm)
		ps.resetRows(0)
	}
	return ps, nil
}

// indexAll activates every sample on a balanced static tree.
func (ps *WindowedPointSet) indexAll() error {
	ps.active = make([]*spatial.Point, len(ps.points))
	for id := range ps.points {
		ps.active[id] = &ps.points[id]
		ps.position[id] = id
	}
	for i, s := range ps.signals {
		ps.rows[i] = [2]int{0, s.Samples()}
	}
	ps.timeBegin, ps.timeEnd = signal.Span(ps.signals)

	static, err := spatial.NewStatic(ps.dimension, ps.opts.Norm, append([]*spatial.Point(nil), ps.active...))
	if err != nil {
		return fmt.Errorf("building static index: %w", err)
	}
	ps.index = static
	pointsReindexed.WithLabelValues("insert").Add(float64(len(ps.active)))
	return nil
}

// resetRows records an empty window starting at time t.
func (ps *WindowedPointSet) resetRows(t int) {
	for i, s := range ps.signals {
		r := clampRow(t-s.TimeOffset(), s.Samples())
		ps.rows[i] = [2]int{r, r}
	}
	ps.timeBegin, ps.timeEnd = t, t
}

func clampRow(r, samples int) int {
	return min(max(r, 0), samples)
}

// SetTimeWindow makes the active set exactly the samples with time stamps in
// [begin, end). Windows reaching outside the signals simply activate fewer
// (possibly zero) samples.
func (ps *WindowedPointSet) SetTimeWindow(begin, end int) error {
	if begin > end {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidWindow, begin, end)
	}

	inserted, removed := 0, 0
	for i, s := range ps.signals {
		off, n := s.TimeOffset(), s.Samples()
		ob, oe := ps.rows[i][0], ps.rows[i][1]
		nb, ne := clampRow(begin-off, n), clampRow(end-off, n)

		// old \ new
		removed += ps.deactivate(i, ob, min(oe, nb))
		removed += ps.deactivate(i, max(ob, ne), oe)

		// new \ old
		c, err := ps.activate(i, nb, min(ne, ob))
		inserted += c
		if err != nil {
			return err
		}
		c, err = ps.activate(i, max(nb, oe), ne)
		inserted += c
		if err != nil {
			return err
		}

		ps.rows[i] = [2]int{nb, ne}
	}
	ps.timeBegin, ps.timeEnd = begin, end

	windowUpdates.Inc()
	pointsReindexed.WithLabelValues("insert").Add(float64(inserted))
	pointsReindexed.WithLabelValues("remove").Add(float64(removed))
	ps.logger.Debug("time window moved", logging.Fields{
		"begin":    begin,
		"end":      end,
		"inserted": inserted,
		"removed":  removed,
		"active":   len(ps.active),
	})
	return nil
}

func (ps *WindowedPointSet) activate(sig, from, to int) (int, error) {
	count := 0
	for r := from; r < to; r++ {
		id := ps.base[sig] + r
		p := &ps.points[id]
		if err := ps.index.Insert(p); err != nil {
			return count, fmt.Errorf("indexing sample %d of signal %d: %w", r, sig, err)
		}
		ps.position[id] = len(ps.active)
		ps.active = append(ps.active, p)
		count++
	}
	return count, nil
}

func (ps *WindowedPointSet) deactivate(sig, from, to int) int {
	count := 0
	for r := from; r < to; r++ {
		id := ps.base[sig] + r
		ps.index.Remove(id)

		pos := ps.position[id]
		last := len(ps.active) - 1
		moved := ps.active[last]
		ps.active[pos] = moved
		ps.position[moved.ID] = pos
		ps.active[last] = nil
		ps.active = ps.active[:last]
		ps.position[id] = -1
		count++
	}
	return count
}

// Marginal returns a set over the same signals restricted to the channels
// [dimBegin, dimEnd) of this set's coordinates, in the same mode and window.
// Point IDs of the marginal match the IDs of this set.
func (ps *WindowedPointSet) Marginal(dimBegin, dimEnd int) (*WindowedPointSet, error) {
	if dimBegin < 0 || dimEnd <= dimBegin || dimEnd > ps.dimension {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidDimensions, dimBegin, dimEnd, ps.dimension)
	}
	opts := ps.opts
	opts.DimBegin = ps.opts.DimBegin + dimBegin
	opts.DimEnd = ps.opts.DimBegin + dimEnd

	m, err := New(ps.signals, opts)
	if err != nil {
		return nil, err
	}
	if !opts.Eager {
		if err := m.SetTimeWindow(ps.timeBegin, ps.timeEnd); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Samples returns the number of active points.
func (ps *WindowedPointSet) Samples() int { return len(ps.active) }

// Dimension returns the coordinate dimension of the points.
func (ps *WindowedPointSet) Dimension() int { return ps.dimension }

// Norm returns the metric of the index.
func (ps *WindowedPointSet) Norm() spatial.Norm { return ps.opts.Norm }

// Index exposes the spatial index holding the active points.
func (ps *WindowedPointSet) Index() spatial.Index { return ps.index }

// Points returns the active points. The order is stable until the next
// SetTimeWindow. Callers must not modify the slice.
func (ps *WindowedPointSet) Points() []*spatial.Point { return ps.active }

// Point returns the arena point with the given ID, active or not.
func (ps *WindowedPointSet) Point(id int) *spatial.Point { return &ps.points[id] }

// Active reports whether the point with the given ID is in the window.
func (ps *WindowedPointSet) Active(id int) bool { return ps.position[id] >= 0 }

// Ref maps a point ID back to its signal, row and time stamp.
func (ps *WindowedPointSet) Ref(id int) PointRef {
	sig := sort.Search(len(ps.base), func(i int) bool { return ps.base[i] > id }) - 1
	row := id - ps.base[sig]
	return PointRef{Signal: sig, Row: row, Time: ps.signals[sig].TimeOffset() + row}
}

// Signals returns the signals the set was built from.
func (ps *WindowedPointSet) Signals() []*signal.Signal { return ps.signals }

// TimeBegin returns the start of the current window.
func (ps *WindowedPointSet) TimeBegin() int { return ps.timeBegin }

// TimeEnd returns the end of the current window.
func (ps *WindowedPointSet) TimeEnd() int { return ps.timeEnd }

// TimeRange returns the union of the signals' time spans.
func (ps *WindowedPointSet) TimeRange() (begin, end int) { return signal.Span(ps.signals) }
