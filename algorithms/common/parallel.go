package common

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// minChunk keeps per-goroutine work above scheduling overhead.
const minChunk = 64

// Workers resolves a configured worker count: values <= 0 mean GOMAXPROCS.
func Workers(configured int) int {
	if configured <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return configured
}

// chunks splits [0, n) into at most workers contiguous ranges.
func chunks(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts := min(Workers(workers), max(n/minChunk, 1))
	size := (n + parts - 1) / parts

	out := make([][2]int, 0, parts)
	for begin := 0; begin < n; begin += size {
		out = append(out, [2]int{begin, min(begin+size, n)})
	}
	return out
}

// ParallelFor calls fn on contiguous sub-ranges of [0, n) using up to
// workers goroutines and waits for all of them.
func ParallelFor(n, workers int, fn func(begin, end int)) {
	ranges := chunks(n, workers)
	if len(ranges) == 1 {
		fn(ranges[0][0], ranges[0][1])
		return
	}

	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for _, r := range ranges {
		g.Go(func() error {
			fn(r[0], r[1])
			return nil
		})
	}
	_ = g.Wait()
}

// ParallelSum evaluates term(i) for every i in [0, n) and returns the sum and
// count of the accepted terms. Each goroutine accumulates a private partial;
// partials are combined once at the end, so the result does not depend on
// scheduling, only on the chunking (and so on the worker count).
func ParallelSum(n, workers int, term func(i int) (value float64, accepted bool)) (sum float64, count int) {
	ranges := chunks(n, workers)
	sums := make([]float64, len(ranges))
	counts := make([]int, len(ranges))

	work := func(slot int) {
		r := ranges[slot]
		s, c := 0.0, 0
		for i := r[0]; i < r[1]; i++ {
			if v, ok := term(i); ok {
				s += v
				c++
			}
		}
		sums[slot], counts[slot] = s, c
	}

	if len(ranges) <= 1 {
		for slot := range ranges {
			work(slot)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(Workers(workers))
		for slot := range ranges {
			g.Go(func() error {
				work(slot)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, c := range counts {
		count += c
	}
	return floats.Sum(sums), count
}
