package spatial

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Static is a balanced kd-tree built once from a point cloud with gonum's
// kdtree package.
//
// Later insertions descend the existing tree without rebalancing. Removal
// only marks a point as removed: searches skip it, and reinserting the same
// ID revives it in place.
type Static struct {
	tree      *kdtree.Tree
	dimension int
	norm      Norm
	members   map[int]*Point
	removed   map[int]struct{}
}

// NewStatic builds a balanced tree over points. The slice is reordered.
func NewStatic(dimension int, norm Norm, points []*Point) (*Static, error) {
	s := &Static{
		dimension: dimension,
		norm:      norm,
		members:   make(map[int]*Point, len(points)),
		removed:   make(map[int]struct{}),
	}
	for _, p := range points {
		if len(p.Coords) != dimension {
			return nil, fmt.Errorf("%w: point %d has %d coordinates, index has %d", ErrDimensionMismatch, p.ID, len(p.Coords), dimension)
		}
		if _, ok := s.members[p.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePoint, p.ID)
		}
		s.members[p.ID] = p
	}

	if len(points) == 0 {
		s.tree = &kdtree.Tree{}
	} else {
		s.tree = kdtree.New(pointList(points), false)
	}
	return s, nil
}

func (s *Static) Dimension() int { return s.dimension }
func (s *Static) Norm() Norm     { return s.norm }
func (s *Static) Len() int       { return len(s.members) - len(s.removed) }
func (s *Static) Empty() bool    { return s.Len() == 0 }

// Insert adds p, or revives it when the same ID was removed earlier.
func (s *Static) Insert(p *Point) error {
	if len(p.Coords) != s.dimension {
		return fmt.Errorf("%w: point %d has %d coordinates, index has %d", ErrDimensionMismatch, p.ID, len(p.Coords), s.dimension)
	}
	if _, ok := s.members[p.ID]; ok {
		if _, gone := s.removed[p.ID]; !gone {
			return fmt.Errorf("%w: %d", ErrDuplicatePoint, p.ID)
		}
		delete(s.removed, p.ID)
		return nil
	}
	s.tree.Insert(p, false)
	s.members[p.ID] = p
	return nil
}

// Remove marks the point with the given ID as removed.
func (s *Static) Remove(id int) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	if _, gone := s.removed[id]; gone {
		return false
	}
	s.removed[id] = struct{}{}
	return true
}

func (s *Static) isRemoved(id int) bool {
	_, gone := s.removed[id]
	return gone
}

func (s *Static) skipper() func(int) bool {
	if len(s.removed) == 0 {
		return nil
	}
	return s.isRemoved
}

// KthNearest implements Index.
func (s *Static) KthNearest(q []float64, k, exclude int, maxRelativeError float64) (Neighbor, bool) {
	if k <= 0 || s.Len() == 0 {
		return NotFound(), false
	}
	keeper := newNearestKeeper(k, exclude, maxRelativeError, s.skipper())
	s.tree.NearestSet(keeper, normQuery{coords: q, norm: s.norm})
	return keeper.kth(k)
}

// CountWithin implements Index.
func (s *Static) CountWithin(q []float64, radius float64, exclude int) int {
	keeper := newCountKeeper(radius, exclude, s.skipper())
	s.tree.NearestSet(keeper, normQuery{coords: q, norm: s.norm})
	return keeper.count
}
