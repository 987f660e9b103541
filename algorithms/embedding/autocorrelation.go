package embedding

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-entropy/algorithms/common"
	"github.com/RyanBlaney/sonido-entropy/signal"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// ErrNoDecorrelation is returned by SuggestDelay when the autocorrelation
// stays above 1/e for every lag up to the limit.
var ErrNoDecorrelation = errors.New("embedding: autocorrelation does not decay within lag limit")

// Autocorrelation returns the normalized autocorrelation r[0..maxLag] of one
// channel of s, with r[0] == 1. maxLag is capped at Samples()-1. A constant
// channel yields NaN at every lag.
//
// The sequence is computed through the power spectrum of the mean-removed
// channel, zero padded to avoid circular wrap-around.
func Autocorrelation(s *signal.Signal, channel, maxLag int) ([]float64, error) {
	if channel < 0 || channel >= s.Dimension() {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrInvalidParameter, channel, s.Dimension())
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: maxLag=%d", ErrInvalidParameter, maxLag)
	}
	n := s.Samples()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidParameter, n)
	}
	maxLag = min(maxLag, n-1)

	x := s.Channel(channel)
	mean := stat.Mean(x, nil)

	padded := make([]float64, common.NextPowerOfTwo(2*n))
	for i, v := range x {
		padded[i] = v - mean
	}

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	acf := fft.IFFT(spectrum)

	out := make([]float64, maxLag+1)
	zero := real(acf[0])
	for lag := range out {
		if zero == 0 {
			out[lag] = math.NaN()
			continue
		}
		out[lag] = real(acf[lag]) / zero
	}
	return out, nil
}

// SuggestDelay returns the first lag at which the autocorrelation of the
// channel falls below 1/e, a common choice for the embedding lag dt.
func SuggestDelay(s *signal.Signal, channel, maxLag int) (int, error) {
	acf, err := Autocorrelation(s, channel, maxLag)
	if err != nil {
		return 0, err
	}
	threshold := 1 / math.E
	for lag := 1; lag < len(acf); lag++ {
		if acf[lag] < threshold {
			return lag, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrNoDecorrelation, maxLag)
}
