package spatial

import "github.com/RyanBlaney/sonido-entropy/algorithms/common"

// KthNearestAll answers KthNearest for every query against one index, each
// query excluding its own ID. Results are in query order; queries with fewer
// than k candidates get NotFound().
func KthNearestAll(idx Index, queries []*Point, k int, maxRelativeError float64, workers int) []Neighbor {
	out := make([]Neighbor, len(queries))
	common.ParallelFor(len(queries), workers, func(begin, end int) {
		for i := begin; i < end; i++ {
			q := queries[i]
			n, ok := idx.KthNearest(q.Coords, k, q.ID, maxRelativeError)
			if !ok {
				n = NotFound()
			}
			out[i] = n
		}
	})
	return out
}
