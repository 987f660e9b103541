package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point is an indexed coordinate vector.
//
// Coords usually aliases a row of a signal; an index never copies or mutates
// it. ID is chosen by the owner of the point and must be unique per index.
type Point struct {
	ID     int
	Coords []float64
}

// NewPoint returns a point referencing coords.
func NewPoint(id int, coords []float64) *Point {
	return &Point{ID: id, Coords: coords}
}

// Compare implements kdtree.Comparable.
func (p *Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.Coords[d] - c.(*Point).Coords[d]
}

// Dims implements kdtree.Comparable.
func (p *Point) Dims() int { return len(p.Coords) }

// Distance implements kdtree.Comparable with the squared Euclidean distance.
// Queries under other norms go through normQuery.
func (p *Point) Distance(c kdtree.Comparable) float64 {
	return squaredEuclidean(p.Coords, c.(*Point).Coords)
}

// normQuery is a query location measured with an arbitrary norm.
type normQuery struct {
	coords []float64
	norm   Norm
}

func (q normQuery) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return q.coords[d] - c.(*Point).Coords[d]
}

func (q normQuery) Dims() int { return len(q.coords) }

func (q normQuery) Distance(c kdtree.Comparable) float64 {
	return q.norm.Distance(q.coords, c.(*Point).Coords)
}

// pointList adapts a slice of points to kdtree.Interface for balanced builds.
type pointList []*Point

func (l pointList) Index(i int) kdtree.Comparable { return l[i] }
func (l pointList) Len() int                      { return len(l) }
func (l pointList) Slice(start, end int) kdtree.Interface {
	return l[start:end]
}
func (l pointList) Pivot(d kdtree.Dim) int {
	return plane{pointList: l, dim: d}.Pivot()
}

// plane orders a pointList along one dimension.
type plane struct {
	pointList
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.pointList[i].Coords[p.dim] < p.pointList[j].Coords[p.dim]
}
func (p plane) Swap(i, j int) {
	p.pointList[i], p.pointList[j] = p.pointList[j], p.pointList[i]
}
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.pointList = p.pointList[start:end]
	return p
}
func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
