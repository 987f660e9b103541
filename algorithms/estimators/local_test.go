package estimators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eulerGamma = 0.5772156649015329

func TestLogEstimator(t *testing.T) {
	t.Parallel()

	l := Log(4, 100)
	assert.InDelta(t, math.Log(4)-math.Log(100), l.Joint(), 1e-12)
	assert.InDelta(t, math.Log(7)-math.Log(100), l.Marginal(7), 1e-12)
	assert.InDelta(t, l.Joint(), l.Marginal(4), 1e-12)
}

func TestDigammaEstimator(t *testing.T) {
	t.Parallel()

	// ψ(1) = -γ and ψ(n+1) = ψ(n) + 1/n
	l := Digamma(1, 2)
	assert.InDelta(t, -1.0, l.Joint(), 1e-10)
	assert.InDelta(t, -eulerGamma-(1-eulerGamma), l.Marginal(1), 1e-10)
	assert.InDelta(t, 0.0, l.Marginal(2), 1e-10)
}

func TestDigammaDensityEstimator(t *testing.T) {
	t.Parallel()

	d := DigammaDensity(3, 50)
	g := Digamma(3, 50)

	assert.InDelta(t, g.Joint(), d.Joint(), 1e-12)
	// equal counts leave the correction at ln(1) = 0
	assert.InDelta(t, d.Joint(), d.Marginal(3), 1e-12)

	want := d.Joint() + math.Log(1+(float64(10-3)/50)*math.Exp(-d.Joint()))
	assert.InDelta(t, want, d.Marginal(10), 1e-12)
}

func TestEstimatorsFiniteOnValidRange(t *testing.T) {
	t.Parallel()

	n := 20
	for name, build := range map[string]LocalEstimator{
		NameLog:            Log,
		NameDigamma:        Digamma,
		NameDigammaDensity: DigammaDensity,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for kNearest := 1; kNearest < n; kNearest++ {
				l := build(kNearest, n)
				assert.False(t, math.IsNaN(l.Joint()) || math.IsInf(l.Joint(), 0))
				for k := 1; k < n; k++ {
					m := l.Marginal(k)
					assert.False(t, math.IsNaN(m) || math.IsInf(m, 0), "k=%d kNearest=%d", k, kNearest)
				}
			}
		})
	}
}

func TestParseLocalEstimator(t *testing.T) {
	t.Parallel()

	for _, name := range []string{NameLog, NameDigamma, NameDigammaDensity, ""} {
		build, err := ParseLocalEstimator(name)
		require.NoError(t, err, name)
		require.NotNil(t, build)
	}

	_, err := ParseLocalEstimator("kernel")
	require.Error(t, err)
}
