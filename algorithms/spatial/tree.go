package spatial

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// DefaultBucketSize is the number of points a leaf holds before it splits.
const DefaultBucketSize = 16

// Tree is a bucketed kd-tree with incremental insertion and removal.
//
// Points live in leaf buckets. A leaf splits along its widest dimension
// once it holds more than the bucket size; removing points merges sibling
// leaves back together when they fall below half a bucket. Coincident points
// never split, so a leaf of identical points may exceed the bucket size.
type Tree struct {
	dimension int
	norm      Norm
	bucket    int
	root      *node
	leafOf    map[int]*node
}

type node struct {
	parent      *node
	left, right *node
	split       int
	value       float64
	points      []*Point // leaves only
	splitAt     int      // retry threshold after a failed split
}

func (n *node) isLeaf() bool { return n.left == nil }

// NewTree returns an empty tree for points of the given dimension.
func NewTree(dimension int, norm Norm) *Tree {
	return NewTreeWithBucketSize(dimension, norm, DefaultBucketSize)
}

// NewTreeWithBucketSize returns an empty tree with a custom leaf capacity.
func NewTreeWithBucketSize(dimension int, norm Norm, bucket int) *Tree {
	bucket = max(bucket, 2)
	return &Tree{
		dimension: dimension,
		norm:      norm,
		bucket:    bucket,
		root:      &node{},
		leafOf:    make(map[int]*node),
	}
}

func (t *Tree) Dimension() int { return t.dimension }
func (t *Tree) Norm() Norm     { return t.norm }
func (t *Tree) Len() int       { return len(t.leafOf) }
func (t *Tree) Empty() bool    { return len(t.leafOf) == 0 }

// Insert adds p to the leaf covering its coordinates.
func (t *Tree) Insert(p *Point) error {
	if len(p.Coords) != t.dimension {
		return fmt.Errorf("%w: point %d has %d coordinates, index has %d", ErrDimensionMismatch, p.ID, len(p.Coords), t.dimension)
	}
	if _, ok := t.leafOf[p.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicatePoint, p.ID)
	}

	n := t.root
	for !n.isLeaf() {
		n = n.child(p.Coords)
	}
	n.points = append(n.points, p)
	t.leafOf[p.ID] = n

	if t.full(n) {
		t.splitLeaf(n)
	}
	return nil
}

// Remove deletes the point with the given ID.
func (t *Tree) Remove(id int) bool {
	leaf, ok := t.leafOf[id]
	if !ok {
		return false
	}
	delete(t.leafOf, id)

	i := slices.IndexFunc(leaf.points, func(p *Point) bool { return p.ID == id })
	last := len(leaf.points) - 1
	leaf.points[i] = leaf.points[last]
	leaf.points[last] = nil
	leaf.points = leaf.points[:last]

	t.mergeUp(leaf.parent)
	return true
}

// full reports whether leaf n should try to split. Leaves of coincident
// points retry only after doubling, which keeps inserts amortized constant.
func (t *Tree) full(n *node) bool {
	return len(n.points) > max(t.bucket, n.splitAt)
}

func (n *node) child(coords []float64) *node {
	if coords[n.split] < n.value {
		return n.left
	}
	return n.right
}

// splitLeaf turns n into an internal node. The split value is the median
// coordinate along the widest dimension, moved up past runs of the minimum
// so that both children receive points.
func (t *Tree) splitLeaf(n *node) {
	dim, spread := 0, 0.0
	for d := range t.dimension {
		lo, hi := n.points[0].Coords[d], n.points[0].Coords[d]
		for _, p := range n.points[1:] {
			lo = min(lo, p.Coords[d])
			hi = max(hi, p.Coords[d])
		}
		if hi-lo > spread {
			dim, spread = d, hi-lo
		}
	}
	if spread == 0 {
		n.splitAt = 2 * len(n.points)
		return
	}

	values := make([]float64, len(n.points))
	for i, p := range n.points {
		values[i] = p.Coords[dim]
	}
	slices.Sort(values)
	value := values[len(values)/2]
	if value == values[0] {
		j := 1
		for values[j] == values[0] {
			j++
		}
		value = values[j]
	}

	n.split, n.value = dim, value
	n.left = &node{parent: n}
	n.right = &node{parent: n}
	for _, p := range n.points {
		c := n.child(p.Coords)
		c.points = append(c.points, p)
		t.leafOf[p.ID] = c
	}
	n.points = nil
	n.splitAt = 0

	if t.full(n.left) {
		t.splitLeaf(n.left)
	}
	if t.full(n.right) {
		t.splitLeaf(n.right)
	}
}

// mergeUp collapses internal nodes whose two leaf children together hold
// at most half a bucket.
func (t *Tree) mergeUp(n *node) {
	for n != nil && n.left.isLeaf() && n.right.isLeaf() {
		if len(n.left.points)+len(n.right.points) > t.bucket/2 {
			return
		}
		n.points = append(n.left.points, n.right.points...)
		for _, p := range n.points {
			t.leafOf[p.ID] = n
		}
		n.left, n.right = nil, nil
		n.splitAt = 0
		n = n.parent
	}
}

// KthNearest implements Index.
func (t *Tree) KthNearest(q []float64, k, exclude int, maxRelativeError float64) (Neighbor, bool) {
	if k <= 0 || t.Len() == 0 {
		return NotFound(), false
	}
	keeper := newNearestKeeper(k, exclude, maxRelativeError, nil)
	t.search(t.root, q, keeper)
	return keeper.kth(k)
}

// CountWithin implements Index.
func (t *Tree) CountWithin(q []float64, radius float64, exclude int) int {
	keeper := newCountKeeper(radius, exclude, nil)
	t.search(t.root, q, keeper)
	return keeper.count
}

// search visits the near child first and the far child only when the
// splitting plane is within the keeper's current bound.
func (t *Tree) search(n *node, q []float64, k kdtree.Keeper) {
	if n.isLeaf() {
		for _, p := range n.points {
			k.Keep(kdtree.ComparableDist{Comparable: p, Dist: t.norm.Distance(q, p.Coords)})
		}
		return
	}

	diff := q[n.split] - n.value
	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}
	t.search(near, q, k)
	if diff*diff <= k.Max().Dist {
		t.search(far, q, k)
	}
}

// Depth returns the height of the tree; a lone leaf has depth 1.
func (t *Tree) Depth() int {
	var depth func(n *node) int
	depth = func(n *node) int {
		if n.isLeaf() {
			return 1
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(t.root)
}
