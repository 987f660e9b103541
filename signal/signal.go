// Package signal holds multichannel, time-stamped sample data.
//
// A Signal stores its samples row-major in a gonum Dense matrix: one row per
// sample, one column per channel. Views returned by Rows, Dimensions, Split and
// WithTimeOffset alias the same backing storage and never copy; Merge and Clone
// allocate.
package signal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch is returned when signals or rows disagree on dimension.
	ErrDimensionMismatch = errors.New("signal: dimension mismatch")

	// ErrInvalidShape is returned for non-positive dimensions, negative sample
	// counts or out-of-range views.
	ErrInvalidShape = errors.New("signal: invalid shape")
)

// Signal is a multichannel real time series.
//
// The time stamp of row i is TimeOffset()+i. The shape is fixed at creation.
type Signal struct {
	data       *mat.Dense // nil when samples == 0
	samples    int
	dimension  int
	timeOffset int
}

// New allocates a zero-filled signal.
func New(samples, dimension int) (*Signal, error) {
	if dimension <= 0 || samples < 0 {
		return nil, fmt.Errorf("%w: %d samples x %d dimensions", ErrInvalidShape, samples, dimension)
	}
	s := &Signal{samples: samples, dimension: dimension}
	if samples > 0 {
		s.data = mat.NewDense(samples, dimension, nil)
	}
	return s, nil
}

// FromData wraps data (row-major, len == samples*dimension) without copying.
func FromData(samples, dimension int, data []float64) (*Signal, error) {
	if dimension <= 0 || samples < 0 {
		return nil, fmt.Errorf("%w: %d samples x %d dimensions", ErrInvalidShape, samples, dimension)
	}
	if len(data) != samples*dimension {
		return nil, fmt.Errorf("%w: got %d values for %d x %d", ErrInvalidShape, len(data), samples, dimension)
	}
	s := &Signal{samples: samples, dimension: dimension}
	if samples > 0 {
		s.data = mat.NewDense(samples, dimension, data)
	}
	return s, nil
}

// FromRows copies rows into a new signal. Every row must have the same length.
func FromRows(rows [][]float64) (*Signal, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidShape)
	}
	dimension := len(rows[0])
	data := make([]float64, 0, len(rows)*dimension)
	for i, row := range rows {
		if len(row) != dimension {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dimension)
		}
		data = append(data, row...)
	}
	return FromData(len(rows), dimension, data)
}

// FromSeries copies a scalar series into a one-dimensional signal.
func FromSeries(values []float64) *Signal {
	data := make([]float64, len(values))
	copy(data, values)
	s, _ := FromData(len(values), 1, data)
	return s
}

// Empty returns a signal with no samples.
func Empty(dimension int, timeOffset int) *Signal {
	return &Signal{dimension: dimension, timeOffset: timeOffset}
}

// Dimension returns the number of channels.
func (s *Signal) Dimension() int { return s.dimension }

// Samples returns the number of rows.
func (s *Signal) Samples() int { return s.samples }

// TimeOffset returns the time stamp of row 0.
func (s *Signal) TimeOffset() int { return s.timeOffset }

// TimeEnd returns one past the time stamp of the last row.
func (s *Signal) TimeEnd() int { return s.timeOffset + s.samples }

// Row returns row i as a slice into the backing storage.
func (s *Signal) Row(i int) []float64 {
	return s.data.RawRowView(i)
}

// At returns the value of channel j at row i.
func (s *Signal) At(i, j int) float64 {
	return s.data.At(i, j)
}

// Set stores v at row i, channel j.
func (s *Signal) Set(i, j int, v float64) {
	s.data.Set(i, j, v)
}

// Matrix exposes the samples as a gonum matrix. It returns nil for an
// empty signal.
func (s *Signal) Matrix() mat.Matrix {
	if s.data == nil {
		return nil
	}
	return s.data
}

// Channel copies channel j into a new slice.
func (s *Signal) Channel(j int) []float64 {
	out := make([]float64, s.samples)
	if s.data != nil {
		mat.Col(out, j, s.data)
	}
	return out
}

// WithTimeOffset returns an alias of s whose row 0 is stamped offset.
func (s *Signal) WithTimeOffset(offset int) *Signal {
	alias := *s
	alias.timeOffset = offset
	return &alias
}

// Rows returns an alias of rows [begin, end). The alias keeps the time stamps
// of the rows it covers.
func (s *Signal) Rows(begin, end int) (*Signal, error) {
	if begin < 0 || end < begin || end > s.samples {
		return nil, fmt.Errorf("%w: rows [%d, %d) of %d", ErrInvalidShape, begin, end, s.samples)
	}
	if begin == end {
		return Empty(s.dimension, s.timeOffset+begin), nil
	}
	return &Signal{
		data:       s.data.Slice(begin, end, 0, s.dimension).(*mat.Dense),
		samples:    end - begin,
		dimension:  s.dimension,
		timeOffset: s.timeOffset + begin,
	}, nil
}

// Dimensions returns an alias restricted to channels [begin, end).
func (s *Signal) Dimensions(begin, end int) (*Signal, error) {
	if begin < 0 || end <= begin || end > s.dimension {
		return nil, fmt.Errorf("%w: dimensions [%d, %d) of %d", ErrInvalidShape, begin, end, s.dimension)
	}
	alias := &Signal{
		samples:    s.samples,
		dimension:  end - begin,
		timeOffset: s.timeOffset,
	}
	if s.data != nil {
		alias.data = s.data.Slice(0, s.samples, begin, end).(*mat.Dense)
	}
	return alias, nil
}

// Clone returns a deep copy of s.
func (s *Signal) Clone() *Signal {
	c := &Signal{samples: s.samples, dimension: s.dimension, timeOffset: s.timeOffset}
	if s.data != nil {
		c.data = mat.DenseCopyOf(s.data)
	}
	return c
}

// HasNaN reports whether any sample is NaN.
func (s *Signal) HasNaN() bool {
	for i := 0; i < s.samples; i++ {
		for _, v := range s.Row(i) {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// Equal reports whether a and b have the same shape, time offset and values.
func Equal(a, b *Signal) bool {
	if a.samples != b.samples || a.dimension != b.dimension || a.timeOffset != b.timeOffset {
		return false
	}
	if a.samples == 0 {
		return true
	}
	return mat.Equal(a.data, b.data)
}
