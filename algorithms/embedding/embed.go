// Package embedding reconstructs phase-space trajectories from time series by
// stacking time-lagged copies of each sample (delay embedding).
//
// An embedded sample carries the time stamp of its most recent component:
// with factor k and lag dt, the sample stamped t holds the source rows
// t-(k-1)*dt, ..., t-dt, t in that order.
package embedding

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-entropy/signal"
)

// ErrInvalidParameter is returned for a non-positive factor or lag, a
// negative start, or mismatched batch lengths.
var ErrInvalidParameter = errors.New("embedding: invalid parameter")

// DelayEmbed embeds s with factor k, starting at row t0 and taking every
// dt-th row.
//
// The result has dimension k*s.Dimension() and
// max(s.Samples() - t0 - (k-1)*dt, 0) samples. Row t holds the source rows
// t0+t, t0+t+dt, ..., t0+t+(k-1)*dt, each contributing s.Dimension()
// consecutive channels. Its time offset is s.TimeOffset() + t0 + (k-1)*dt.
func DelayEmbed(s *signal.Signal, k, t0, dt int) (*signal.Signal, error) {
	if k <= 0 || t0 < 0 || dt < 1 {
		return nil, fmt.Errorf("%w: k=%d t0=%d dt=%d", ErrInvalidParameter, k, t0, dt)
	}

	n := s.Dimension()
	width := (k-1)*dt + 1
	samples := max(s.Samples()-t0-width+1, 0)
	offset := s.TimeOffset() + t0 + (k-1)*dt

	if samples == 0 {
		return signal.Empty(k*n, offset), nil
	}

	out, err := signal.New(samples, k*n)
	if err != nil {
		return nil, err
	}
	for t := range samples {
		row := out.Row(t)
		for j := range k {
			copy(row[j*n:(j+1)*n], s.Row(t0+t+j*dt))
		}
	}
	return out.WithTimeOffset(offset), nil
}

// DelayEmbedFuture returns the samples one lag step ahead of
// DelayEmbed(s, k, t0, dt): the factor-1 embedding starting at t0 + k*dt.
// Pairing the two gives (state, next state) samples.
func DelayEmbedFuture(s *signal.Signal, k, t0, dt int) (*signal.Signal, error) {
	if k <= 0 || t0 < 0 || dt < 1 {
		return nil, fmt.Errorf("%w: k=%d t0=%d dt=%d", ErrInvalidParameter, k, t0, dt)
	}
	return DelayEmbed(s, 1, t0+k*dt, dt)
}

// Shift drops the first dt rows of s without copying. The result equals
// DelayEmbed(s, 1, dt, 1) but aliases the storage of s.
func Shift(s *signal.Signal, dt int) (*signal.Signal, error) {
	if dt < 1 {
		return nil, fmt.Errorf("%w: dt=%d", ErrInvalidParameter, dt)
	}
	if dt >= s.Samples() {
		return signal.Empty(s.Dimension(), s.TimeOffset()+dt), nil
	}
	return s.Rows(dt, s.Samples())
}

// DelayEmbedSet applies DelayEmbed to every signal of in, writing to the
// same position of out.
func DelayEmbedSet(in, out []*signal.Signal, k, t0, dt int) error {
	return each(in, out, func(s *signal.Signal) (*signal.Signal, error) {
		return DelayEmbed(s, k, t0, dt)
	})
}

// DelayEmbedFutureSet applies DelayEmbedFuture to every signal of in.
func DelayEmbedFutureSet(in, out []*signal.Signal, k, t0, dt int) error {
	return each(in, out, func(s *signal.Signal) (*signal.Signal, error) {
		return DelayEmbedFuture(s, k, t0, dt)
	})
}

// ShiftSet applies Shift to every signal of in.
func ShiftSet(in, out []*signal.Signal, dt int) error {
	return each(in, out, func(s *signal.Signal) (*signal.Signal, error) {
		return Shift(s, dt)
	})
}

func each(in, out []*signal.Signal, fn func(*signal.Signal) (*signal.Signal, error)) error {
	if len(in) != len(out) {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrInvalidParameter, len(in), len(out))
	}
	for i, s := range in {
		e, err := fn(s)
		if err != nil {
			return fmt.Errorf("signal %d: %w", i, err)
		}
		out[i] = e
	}
	return nil
}
