package spatial

import (
	"fmt"
	"math"
)

// Norm selects the point metric used by an index.
type Norm int

const (
	// Euclidean (L2) norm
	Euclidean Norm = iota

	// Maximum (L∞, Chebyshev) norm
	Maximum

	// Manhattan (L1) norm
	Manhattan
)

func (n Norm) String() string {
	switch n {
	case Euclidean:
		return "euclidean"
	case Maximum:
		return "maximum"
	case Manhattan:
		return "manhattan"
	default:
		return "unknown"
	}
}

// ParseNorm converts a configuration name to a Norm.
func ParseNorm(name string) (Norm, error) {
	switch name {
	case "euclidean", "l2", "":
		return Euclidean, nil
	case "maximum", "max", "chebyshev", "linf":
		return Maximum, nil
	case "manhattan", "l1":
		return Manhattan, nil
	default:
		return Euclidean, fmt.Errorf("unknown norm %q", name)
	}
}

// Distance returns the squared norm of a-b.
//
// Every index query works on squared distances. For the maximum and
// Manhattan norms the square keeps the axis test diff*diff <= best valid,
// which is the pruning rule the kd-tree searches use.
func (n Norm) Distance(a, b []float64) float64 {
	switch n {
	case Maximum:
		return sq(chebyshev(a, b))
	case Manhattan:
		return sq(manhattan(a, b))
	default:
		return squaredEuclidean(a, b)
	}
}

// Length converts a squared distance returned by Distance back to a norm value.
func (n Norm) Length(squared float64) float64 {
	return math.Sqrt(squared)
}

// LogUnitBallVolume returns the natural logarithm of the volume of the unit
// ball of the norm in d dimensions.
//
//	Euclidean: π^(d/2) / Γ(d/2 + 1)
//	Maximum:   2^d
//	Manhattan: 2^d / d!
func (n Norm) LogUnitBallVolume(d int) float64 {
	fd := float64(d)
	switch n {
	case Maximum:
		return fd * math.Ln2
	case Manhattan:
		lg, _ := math.Lgamma(fd + 1)
		return fd*math.Ln2 - lg
	default:
		lg, _ := math.Lgamma(fd/2 + 1)
		return fd/2*math.Log(math.Pi) - lg
	}
}

func sq(x float64) float64 { return x * x }

func squaredEuclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func manhattan(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func chebyshev(a, b []float64) float64 {
	maxDiff := 0.0
	for i := range a {
		diff := math.Abs(a[i] - b[i])
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}
