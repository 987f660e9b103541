// Package spatial provides the nearest-neighbor indexes behind the k-NN
// estimators.
//
// Two implementations share the Index interface. Tree is a bucketed kd-tree
// that supports cheap insertion and removal and backs sliding time windows.
// Static wraps gonum's balanced kdtree.Tree and backs point sets that are
// indexed once. Both run their searches through the kdtree.Keeper protocol
// and report squared distances (see Norm.Distance).
package spatial

import (
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a point does not match the index dimension.
	ErrDimensionMismatch = errors.New("spatial: dimension mismatch")

	// ErrDuplicatePoint is returned when a point ID is inserted twice.
	ErrDuplicatePoint = errors.New("spatial: duplicate point id")
)

// Index is a dynamic point index answering k-th nearest neighbor and
// fixed-radius count queries.
//
// Insert and Remove must not run concurrently with each other or with
// queries. Queries may run concurrently.
type Index interface {
	// Dimension returns the coordinate dimension of indexed points.
	Dimension() int

	// Norm returns the metric used by queries.
	Norm() Norm

	// Len returns the number of indexed points.
	Len() int

	// Empty reports whether Len() == 0.
	Empty() bool

	// Insert adds p. The index keeps a reference to p.Coords.
	Insert(p *Point) error

	// Remove deletes the point with the given ID and reports whether it was present.
	Remove(id int) bool

	// KthNearest returns the k-th nearest point to q, ignoring the point
	// with ID exclude (pass -1 to ignore nothing). With maxRelativeError > 0
	// the returned distance is within a factor (1+maxRelativeError) of the
	// exact one. ok is false when fewer than k points qualify.
	KthNearest(q []float64, k, exclude int, maxRelativeError float64) (n Neighbor, ok bool)

	// CountWithin returns the number of points, other than exclude, whose
	// squared-form distance to q is strictly less than radius.
	CountWithin(q []float64, radius float64, exclude int) int
}
