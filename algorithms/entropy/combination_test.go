package entropy

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/config"
	"github.com/RyanBlaney/sonido-entropy/internal/testutil"
	"github.com/RyanBlaney/sonido-entropy/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitTrials separates the channels of every trial into one variable each.
func splitTrials(t *testing.T, trials []*signal.Signal, widths ...int) [][]*signal.Signal {
	t.Helper()
	vars := make([][]*signal.Signal, len(widths))
	for _, s := range trials {
		parts, err := signal.Split(s, widths...)
		require.NoError(t, err)
		for i, p := range parts {
			vars[i] = append(vars[i], p)
		}
	}
	return vars
}

// coupled returns x white noise and y driven by x one step later:
// y[t+1] = 0.5 y[t] + 0.8 x[t] + 0.3 noise.
func coupled(seed uint64, n int) (x, y *signal.Signal) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range n {
		xs[i] = rng.NormFloat64()
		if i > 0 {
			ys[i] = 0.5*ys[i-1] + 0.8*xs[i-1] + 0.3*rng.NormFloat64()
		}
	}
	return signal.FromSeries(xs), signal.FromSeries(ys)
}

func TestMutualInformationGaussian(t *testing.T) {
	t.Parallel()

	e := newEstimator(t, withK(4))
	for _, rho := range []float64{0, 0.5, 0.8} {
		cov := testutil.Correlated(rho)
		trials := testutil.Gaussian(uint64(10+rho*10), 2, 1500, []float64{0, 0}, cov)
		vars := splitTrials(t, trials, 1, 1)

		mi, err := e.MutualInformation(vars, nil)
		require.NoError(t, err)
		assert.InDelta(t, testutil.GaussianMutualInformation(cov, 1), mi, 0.05, "rho=%g", rho)
	}
}

func TestMutualInformationMatchesCombination(t *testing.T) {
	t.Parallel()

	trials := testutil.Gaussian(20, 1, 600, []float64{0, 0, 0}, testutil.Identity(3))
	vars := splitTrials(t, trials, 2, 1)
	e := newEstimator(t, withK(3))

	mi, err := e.MutualInformation(vars, nil)
	require.NoError(t, err)
	combined, err := e.EntropyCombination(trials, []Term{
		{DimBegin: 0, DimEnd: 2, Weight: 1},
		{DimBegin: 2, DimEnd: 3, Weight: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, mi, combined)
}

func TestMutualInformationLocalEstimators(t *testing.T) {
	t.Parallel()

	cov := testutil.Correlated(0.6)
	vars := splitTrials(t, testutil.Gaussian(21, 1, 2000, []float64{0, 0}, cov), 1, 1)
	want := testutil.GaussianMutualInformation(cov, 1)

	for _, name := range []string{estimators.NameDigamma, estimators.NameDigammaDensity} {
		e := newEstimator(t, func(c *config.EstimatorConfig) {
			c.KNearest = 4
			c.LocalEstimator = name
		})
		mi, err := e.MutualInformation(vars, nil)
		require.NoError(t, err)
		assert.InDelta(t, want, mi, 0.06, name)
	}

	e := newEstimator(t, func(c *config.EstimatorConfig) {
		c.KNearest = 4
		c.LocalEstimator = estimators.NameLog
	})
	mi, err := e.MutualInformation(vars, nil)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(mi))
}

func TestMutualInformationLag(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(30, 31))
	xs := make([]float64, 2000)
	ys := make([]float64, 2000)
	for i := range xs {
		xs[i] = rng.NormFloat64()
		if i >= 3 {
			ys[i] = xs[i-3] + 0.5*rng.NormFloat64()
		} else {
			ys[i] = rng.NormFloat64()
		}
	}
	vars := [][]*signal.Signal{{signal.FromSeries(xs)}, {signal.FromSeries(ys)}}
	e := newEstimator(t, withK(4))

	unlagged, err := e.MutualInformation(vars, nil)
	require.NoError(t, err)
	lagged, err := e.MutualInformation(vars, []int{3, 0})
	require.NoError(t, err)

	// y = x + noise with variance 1/4: I = ln(5)/2
	assert.InDelta(t, 0, unlagged, 0.05)
	assert.InDelta(t, 0.5*math.Log(5), lagged, 0.08)

	_, err = e.MutualInformation(vars, []int{1})
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.MutualInformation(vars[:1], nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPartialMutualInformationRemovesCommonDriver(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(40, 41))
	n := 2000
	xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		zs[i] = rng.NormFloat64()
		xs[i] = zs[i] + 0.5*rng.NormFloat64()
		ys[i] = zs[i] + 0.5*rng.NormFloat64()
	}
	x := []*signal.Signal{signal.FromSeries(xs)}
	y := []*signal.Signal{signal.FromSeries(ys)}
	z := []*signal.Signal{signal.FromSeries(zs)}
	e := newEstimator(t, withK(4))

	mi, err := e.MutualInformation([][]*signal.Signal{x, y}, nil)
	require.NoError(t, err)
	pmi, err := e.PartialMutualInformation(x, y, z)
	require.NoError(t, err)

	assert.Greater(t, mi, 0.4)
	assert.InDelta(t, 0, pmi, 0.08)
}

func TestTransferEntropyDirection(t *testing.T) {
	t.Parallel()

	x, y := coupled(50, 2500)
	e := newEstimator(t, withK(4))

	forward, err := e.TransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, 1, 1)
	require.NoError(t, err)
	backward, err := e.TransferEntropy([]*signal.Signal{y}, []*signal.Signal{x}, 1, 1)
	require.NoError(t, err)

	// I(y[t+1]; x[t] | y[t]) = ln((0.64+0.09)/0.09)/2
	assert.InDelta(t, 0.5*math.Log(0.73/0.09), forward, 0.15)
	assert.InDelta(t, 0, backward, 0.05)
}

func TestPartialTransferEntropy(t *testing.T) {
	t.Parallel()

	x, y := coupled(60, 2500)
	rng := rand.New(rand.NewPCG(61, 62))
	noise := make([]float64, x.Samples())
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}
	z := signal.FromSeries(noise)
	e := newEstimator(t, withK(4))

	pte, err := e.PartialTransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, []*signal.Signal{z}, 1, 1)
	require.NoError(t, err)
	assert.Greater(t, pte, 0.7)

	// conditioning on the driver itself leaves nothing to transfer
	driven, err := e.PartialTransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, []*signal.Signal{x}, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, driven, 0.05)

	_, err = e.PartialTransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, nil, 1, 1)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTransferEntropyRejectsBadEmbedding(t *testing.T) {
	t.Parallel()

	x, y := coupled(70, 100)
	e := NewEstimator()

	_, err := e.TransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, 0, 1)
	require.Error(t, err)
	_, err = e.TransferEntropy([]*signal.Signal{x}, []*signal.Signal{y}, 1, 0)
	require.Error(t, err)
	_, err = e.TransferEntropy([]*signal.Signal{x}, []*signal.Signal{y, y}, 1, 1)
	require.ErrorIs(t, err, signal.ErrDimensionMismatch)
}

func TestEntropyCombinationTermValidation(t *testing.T) {
	t.Parallel()

	trials := testutil.Gaussian(80, 1, 50, []float64{0, 0}, testutil.Identity(2))
	e := NewEstimator()

	for _, terms := range [][]Term{
		nil,
		{{DimBegin: 0, DimEnd: 3, Weight: 1}},
		{{DimBegin: 1, DimEnd: 1, Weight: 1}},
		{{DimBegin: -1, DimEnd: 1, Weight: 1}},
	} {
		_, err := e.EntropyCombination(trials, terms)
		require.ErrorIs(t, err, ErrInvalidParameter, "%v", terms)
	}

	v, err := e.EntropyCombination(nil, []Term{{DimBegin: 0, DimEnd: 1, Weight: 1}})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestTemporalMutualInformationEnsemble(t *testing.T) {
	t.Parallel()

	// 300 trials of 8 steps; x and y are coupled only from step 4 on
	rng := rand.New(rand.NewPCG(90, 91))
	var xs, ys []*signal.Signal
	for range 300 {
		x := make([]float64, 8)
		y := make([]float64, 8)
		for i := range 8 {
			x[i] = rng.NormFloat64()
			y[i] = rng.NormFloat64()
			if i >= 4 {
				y[i] = x[i] + 0.5*y[i]
			}
		}
		xs = append(xs, signal.FromSeries(x).WithTimeOffset(-2))
		ys = append(ys, signal.FromSeries(y).WithTimeOffset(-2))
	}

	e := newEstimator(t, withK(4))
	temporal, err := e.TemporalMutualInformation([][]*signal.Signal{xs, ys}, nil)
	require.NoError(t, err)
	require.Equal(t, 8, temporal.Samples())
	assert.Equal(t, -2, temporal.TimeOffset())

	for i := range 4 {
		assert.InDelta(t, 0, temporal.At(i, 0), 0.12, "uncoupled step %d", i)
		assert.InDelta(t, 0.5*math.Log(5), temporal.At(i+4, 0), 0.15, "coupled step %d", i+4)
	}

	te, err := e.TemporalTransferEntropy(xs, ys, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, te.Samples())

	pmi, err := e.TemporalPartialMutualInformation(xs, ys, xs)
	require.NoError(t, err)
	assert.Equal(t, 8, pmi.Samples())

	pte, err := e.TemporalPartialTransferEntropy(xs, ys, ys, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, pte.Samples())
}
