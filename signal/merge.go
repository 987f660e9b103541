package signal

import (
	"fmt"
)

// Merge stacks the channels of signals side by side.
//
// Rows are paired by time stamp: the result covers the intersection of the
// input time spans, so signals with different offsets (for example a delay
// embedding and its future) line up sample by sample. The result owns new
// storage.
func Merge(signals ...*Signal) (*Signal, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", ErrInvalidShape)
	}

	begin, end := signals[0].TimeOffset(), signals[0].TimeEnd()
	dimension := 0
	for _, s := range signals {
		begin = max(begin, s.TimeOffset())
		end = min(end, s.TimeEnd())
		dimension += s.Dimension()
	}
	samples := max(end-begin, 0)

	merged, err := New(samples, dimension)
	if err != nil {
		return nil, err
	}
	merged.timeOffset = begin

	for t := range samples {
		dst := merged.Row(t)
		col := 0
		for _, s := range signals {
			col += copy(dst[col:], s.Row(begin-s.TimeOffset()+t))
		}
	}
	return merged, nil
}

// MergeSets merges the i-th signal of every set, trial by trial. All sets
// must hold the same number of signals.
func MergeSets(sets ...[]*Signal) ([]*Signal, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	trials := len(sets[0])
	for i, set := range sets {
		if len(set) != trials {
			return nil, fmt.Errorf("%w: set %d has %d signals, want %d", ErrDimensionMismatch, i, len(set), trials)
		}
	}

	merged := make([]*Signal, trials)
	parts := make([]*Signal, len(sets))
	for trial := range trials {
		for i, set := range sets {
			parts[i] = set[trial]
		}
		m, err := Merge(parts...)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		merged[trial] = m
	}
	return merged, nil
}

// Split partitions the channels of s into consecutive blocks of the given
// widths. The parts alias s.
func Split(s *Signal, widths ...int) ([]*Signal, error) {
	total := 0
	for _, w := range widths {
		if w <= 0 {
			return nil, fmt.Errorf("%w: non-positive split width %d", ErrInvalidShape, w)
		}
		total += w
	}
	if total != s.Dimension() {
		return nil, fmt.Errorf("%w: split widths sum to %d, signal has %d", ErrDimensionMismatch, total, s.Dimension())
	}

	parts := make([]*Signal, len(widths))
	col := 0
	for i, w := range widths {
		part, err := s.Dimensions(col, col+w)
		if err != nil {
			return nil, err
		}
		parts[i] = part
		col += w
	}
	return parts, nil
}

// Span returns the union [begin, end) of the time spans of signals. An empty
// slice yields [0, 0).
func Span(signals []*Signal) (begin, end int) {
	if len(signals) == 0 {
		return 0, 0
	}
	begin, end = signals[0].TimeOffset(), signals[0].TimeEnd()
	for _, s := range signals[1:] {
		begin = min(begin, s.TimeOffset())
		end = max(end, s.TimeEnd())
	}
	return begin, end
}

// CommonDimension returns the dimension shared by all signals, or an error
// when they disagree. It returns 0 for an empty slice.
func CommonDimension(signals []*Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	d := signals[0].Dimension()
	for i, s := range signals {
		if s.Dimension() != d {
			return 0, fmt.Errorf("%w: signal %d has dimension %d, want %d", ErrDimensionMismatch, i, s.Dimension(), d)
		}
	}
	return d, nil
}

// TotalSamples sums the sample counts of signals.
func TotalSamples(signals []*Signal) int {
	n := 0
	for _, s := range signals {
		n += s.Samples()
	}
	return n
}
