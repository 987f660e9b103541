package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// nearestKeeper retains the k nearest points of a query, skipping the query's
// own ID and any point the owning index reports as removed.
//
// A positive relative error shrinks the bound reported by Max, so searches
// prune any subtree that cannot improve the current k-th distance by more
// than a factor (1+ε). The retained distances are always exact.
type nearestKeeper struct {
	*kdtree.NKeeper
	exclude int
	removed func(id int) bool
	shrink  float64
}

func newNearestKeeper(k, exclude int, maxRelativeError float64, removed func(int) bool) *nearestKeeper {
	shrink := 1.0
	if maxRelativeError > 0 {
		shrink = 1 / sq(1+maxRelativeError)
	}
	return &nearestKeeper{
		NKeeper: kdtree.NewNKeeper(k),
		exclude: exclude,
		removed: removed,
		shrink:  shrink,
	}
}

func (k *nearestKeeper) Keep(c kdtree.ComparableDist) {
	id := c.Comparable.(*Point).ID
	if id == k.exclude || (k.removed != nil && k.removed(id)) {
		return
	}
	k.NKeeper.Keep(c)
}

func (k *nearestKeeper) Max() kdtree.ComparableDist {
	m := k.NKeeper.Max()
	m.Dist *= k.shrink
	return m
}

// kth returns the farthest of the retained points when exactly want points
// were found.
func (k *nearestKeeper) kth(want int) (Neighbor, bool) {
	found := 0
	worst := Neighbor{ID: -1, Distance: -1}
	for _, c := range k.NKeeper.Heap {
		if c.Comparable == nil {
			continue
		}
		found++
		if c.Dist > worst.Distance {
			worst = Neighbor{ID: c.Comparable.(*Point).ID, Distance: c.Dist}
		}
	}
	if found < want {
		return NotFound(), false
	}
	return worst, true
}

// countKeeper counts points strictly closer than radius without retaining
// them. Its single sentinel keeps Max at the radius for pruning.
type countKeeper struct {
	kdtree.Heap
	radius  float64
	exclude int
	removed func(id int) bool
	count   int
}

func newCountKeeper(radius float64, exclude int, removed func(int) bool) *countKeeper {
	return &countKeeper{
		Heap:    kdtree.Heap{{Dist: radius}},
		radius:  radius,
		exclude: exclude,
		removed: removed,
	}
}

func (k *countKeeper) Keep(c kdtree.ComparableDist) {
	if c.Dist >= k.radius {
		return
	}
	id := c.Comparable.(*Point).ID
	if id == k.exclude || (k.removed != nil && k.removed(id)) {
		return
	}
	k.count++
}

func (k *countKeeper) Max() kdtree.ComparableDist {
	return kdtree.ComparableDist{Dist: k.radius}
}

// Neighbor is the result of a k-th nearest neighbor query. Distance is in
// the squared form returned by Norm.Distance.
type Neighbor struct {
	ID       int
	Distance float64
}

// NotFound is returned when fewer than k candidate points exist.
func NotFound() Neighbor {
	return Neighbor{ID: -1, Distance: math.Inf(1)}
}

// Found reports whether n refers to an actual point.
func (n Neighbor) Found() bool {
	return n.ID >= 0
}
