// Package testutil generates sample ensembles with closed-form
// information-theoretic ground truth for estimator tests.
package testutil

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/sonido-entropy/signal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian draws trials signals of the given length from N(mean, cov).
// The same seed always yields the same samples.
func Gaussian(seed uint64, trials, samples int, mean []float64, cov mat.Symmetric) []*signal.Signal {
	normal, ok := distmv.NewNormal(mean, cov, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if !ok {
		panic("testutil: covariance is not positive definite")
	}

	dim := len(mean)
	out := make([]*signal.Signal, trials)
	for trial := range out {
		s, err := signal.New(samples, dim)
		if err != nil {
			panic(fmt.Sprintf("testutil: %v", err))
		}
		for row := range samples {
			normal.Rand(s.Row(row))
		}
		out[trial] = s
	}
	return out
}

// Correlated returns the covariance of a standard normal pair with
// correlation rho.
func Correlated(rho float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{1, rho, rho, 1})
}

// Identity returns the d x d identity covariance.
func Identity(d int) *mat.SymDense {
	cov := mat.NewSymDense(d, nil)
	for i := range d {
		cov.SetSym(i, i, 1)
	}
	return cov
}

// LogDet returns ln det(cov) through a Cholesky factorization.
func LogDet(cov mat.Symmetric) float64 {
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		panic("testutil: covariance is not positive definite")
	}
	return chol.LogDet()
}

// GaussianEntropy returns the differential entropy of N(., cov) in nats.
func GaussianEntropy(cov mat.Symmetric) float64 {
	d := float64(cov.SymmetricDim())
	return 0.5 * (d*math.Log(2*math.Pi*math.E) + LogDet(cov))
}

// GaussianRenyiEntropy returns the Rényi entropy of order q != 1 of
// N(., cov).
func GaussianRenyiEntropy(cov mat.Symmetric, q float64) float64 {
	d := float64(cov.SymmetricDim())
	return 0.5*(d*math.Log(2*math.Pi)+LogDet(cov)) + d*math.Log(q)/(2*(q-1))
}

// GaussianTsallisEntropy returns the Tsallis entropy of order q != 1 of
// N(., cov).
func GaussianTsallisEntropy(cov mat.Symmetric, q float64) float64 {
	return -math.Expm1((1-q)*GaussianRenyiEntropy(cov, q)) / (q - 1)
}

// GaussianMutualInformation returns I(X; Y) for a joint Gaussian whose
// first split channels are X and the rest Y.
func GaussianMutualInformation(cov *mat.SymDense, split int) float64 {
	d := cov.SymmetricDim()
	x := cov.SliceSym(0, split)
	y := cov.SliceSym(split, d)
	return GaussianEntropy(x) + GaussianEntropy(y) - GaussianEntropy(cov)
}
