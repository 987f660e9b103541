package pointset

import (
	"sort"
	"testing"

	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeIDs(ps *WindowedPointSet) []int {
	ids := make([]int, 0, ps.Samples())
	for _, p := range ps.Points() {
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)
	return ids
}

func series(offset int, values ...float64) *signal.Signal {
	return signal.FromSeries(values).WithTimeOffset(offset)
}

func TestSetTimeWindowSequence(t *testing.T) {
	t.Parallel()

	ps, err := New([]*signal.Signal{series(0, 1, 2, 3, 4, 5)}, Options{Norm: spatial.Maximum})
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Samples())
	assert.Equal(t, 1, ps.Dimension())

	steps := []struct {
		begin, end int
		want       []int
	}{
		{-10, 10, []int{0, 1, 2, 3, 4}},
		{1, 4, []int{1, 2, 3}},
		{2, 2, []int{}},
		{0, 10, []int{0, 1, 2, 3, 4}},
		{3, 7, []int{3, 4}},
		{-4, -1, []int{}},
	}
	for _, step := range steps {
		require.NoError(t, ps.SetTimeWindow(step.begin, step.end))
		assert.Equal(t, step.want, activeIDs(ps), "window [%d, %d)", step.begin, step.end)
		assert.Equal(t, len(step.want), ps.Index().Len())
		assert.Equal(t, step.begin, ps.TimeBegin())
		assert.Equal(t, step.end, ps.TimeEnd())
		for _, id := range step.want {
			assert.True(t, ps.Active(id))
		}
	}
}

func TestSetTimeWindowRejectsReversedWindow(t *testing.T) {
	t.Parallel()

	ps, err := New([]*signal.Signal{series(0, 1, 2, 3)}, Options{})
	require.NoError(t, err)
	require.NoError(t, ps.SetTimeWindow(0, 2))

	err = ps.SetTimeWindow(3, 1)
	require.ErrorIs(t, err, ErrInvalidWindow)
	assert.Equal(t, []int{0, 1}, activeIDs(ps), "failed move leaves the window untouched")
}

func TestWindowAcrossTrialsWithOffsets(t *testing.T) {
	t.Parallel()

	a := series(0, 0, 1, 2, 3)
	b := series(2, 10, 11, 12, 13)
	ps, err := New([]*signal.Signal{a, b}, Options{Norm: spatial.Euclidean})
	require.NoError(t, err)

	begin, end := ps.TimeRange()
	assert.Equal(t, 0, begin)
	assert.Equal(t, 6, end)

	require.NoError(t, ps.SetTimeWindow(2, 4))
	// a rows 2,3 (ids 2,3) and b rows 0,1 (ids 4,5)
	assert.Equal(t, []int{2, 3, 4, 5}, activeIDs(ps))

	ref := ps.Ref(5)
	assert.Equal(t, PointRef{Signal: 1, Row: 1, Time: 3}, ref)
	assert.Equal(t, 11.0, ps.Point(5).Coords[0])

	n, ok := ps.Index().KthNearest(ps.Point(3).Coords, 1, 3, 0)
	require.True(t, ok)
	assert.Equal(t, 2, n.ID)
}

func TestSlidingWindowMatchesFreshSet(t *testing.T) {
	t.Parallel()

	values := make([]float64, 200)
	for i := range values {
		values[i] = float64((i * 37) % 101)
	}
	s := series(-20, values...)

	sliding, err := New([]*signal.Signal{s}, Options{Norm: spatial.Maximum})
	require.NoError(t, err)

	for t0 := -30; t0 < 190; t0 += 7 {
		require.NoError(t, sliding.SetTimeWindow(t0, t0+25))

		fresh, err := New([]*signal.Signal{s}, Options{Norm: spatial.Maximum})
		require.NoError(t, err)
		require.NoError(t, fresh.SetTimeWindow(t0, t0+25))

		require.Equal(t, activeIDs(fresh), activeIDs(sliding))
		for _, p := range sliding.Points() {
			want, okWant := fresh.Index().KthNearest(p.Coords, 2, p.ID, 0)
			got, okGot := sliding.Index().KthNearest(p.Coords, 2, p.ID, 0)
			require.Equal(t, okWant, okGot)
			if okWant {
				assert.Equal(t, want.Distance, got.Distance)
			}
		}
	}
}

func TestEagerSetIndexesEverything(t *testing.T) {
	t.Parallel()

	rows, err := signal.FromRows([][]float64{{0, 0}, {1, 5}, {2, 1}})
	require.NoError(t, err)
	ps, err := New([]*signal.Signal{rows, rows.WithTimeOffset(10)}, Options{Eager: true})
	require.NoError(t, err)

	assert.Equal(t, 6, ps.Samples())
	assert.Equal(t, 6, ps.Index().Len())
	assert.Equal(t, 0, ps.TimeBegin())
	assert.Equal(t, 13, ps.TimeEnd())

	require.NoError(t, ps.SetTimeWindow(10, 12))
	assert.Equal(t, []int{3, 4}, activeIDs(ps))
	assert.Equal(t, 2, ps.Index().Len())

	require.NoError(t, ps.SetTimeWindow(0, 20))
	assert.Equal(t, 6, ps.Index().Len())
}

func TestMarginalSharesIDs(t *testing.T) {
	t.Parallel()

	rows, err := signal.FromRows([][]float64{{0, 9, 1}, {1, 8, 1}, {2, 7, 1}, {3, 6, 1}})
	require.NoError(t, err)
	ps, err := New([]*signal.Signal{rows}, Options{Norm: spatial.Maximum})
	require.NoError(t, err)
	require.NoError(t, ps.SetTimeWindow(1, 4))

	m, err := ps.Marginal(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dimension())
	assert.Equal(t, activeIDs(ps), activeIDs(m))
	assert.Equal(t, []float64{8}, m.Point(1).Coords)

	mm, err := m.Marginal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{8}, mm.Point(1).Coords)

	_, err = ps.Marginal(2, 4)
	require.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestDimensionRangeOption(t *testing.T) {
	t.Parallel()

	rows, err := signal.FromRows([][]float64{{1, 2, 3}})
	require.NoError(t, err)

	ps, err := New([]*signal.Signal{rows}, Options{DimBegin: 1, DimEnd: 3, Eager: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, ps.Point(0).Coords)

	_, err = New([]*signal.Signal{rows}, Options{DimBegin: 2, DimEnd: 5})
	require.ErrorIs(t, err, ErrInvalidDimensions)

	other, err := signal.FromRows([][]float64{{1, 2}})
	require.NoError(t, err)
	_, err = New([]*signal.Signal{rows, other}, Options{})
	require.ErrorIs(t, err, signal.ErrDimensionMismatch)
}

func TestEmptySet(t *testing.T) {
	t.Parallel()

	ps, err := New(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Samples())
	require.NoError(t, ps.SetTimeWindow(-5, 5))
	assert.Equal(t, 0, ps.Samples())

	eager, err := New([]*signal.Signal{signal.Empty(2, 0)}, Options{Eager: true})
	require.NoError(t, err)
	assert.Equal(t, 0, eager.Samples())
	assert.True(t, eager.Index().Empty())
}
