package entropy

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-entropy/algorithms/embedding"
	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/signal"
)

// EntropyCombination estimates sum_i Weight_i * H(marginal_i) - H(joint) for
// the joint distribution sampled by signals with the Kraskov-Stögbauer-
// Grassberger method: every marginal ball takes the radius of the joint
// k-th neighbor ball, and a point contributes
//
//	joint(k, n) - sum_i Weight_i * marginal(n_i + 1)
//
// where n_i counts the points strictly inside the ball in marginal i. The
// maximum norm is used regardless of configuration.
func (e *Estimator) EntropyCombination(signals []*signal.Signal, terms []Term) (float64, error) {
	if err := checkTerms(signals, terms); err != nil {
		return math.NaN(), err
	}
	return e.single(signals, terms, spatial.Maximum, combinationEstimate("entropy_combination", terms))
}

// TemporalEntropyCombination is the temporal form of EntropyCombination.
func (e *Estimator) TemporalEntropyCombination(signals []*signal.Signal, terms []Term) (*signal.Signal, error) {
	if err := checkTerms(signals, terms); err != nil {
		return nil, err
	}
	return e.temporal(signals, terms, spatial.Maximum, combinationEstimate("entropy_combination", terms))
}

func combinationEstimate(name string, terms []Term) estimate {
	weights := make([]float64, len(terms))
	for i, t := range terms {
		weights[i] = t.Weight
	}
	return estimate{
		name: name,
		point: func(_ float64, counts []int, local estimators.Local) float64 {
			v := local.Joint()
			for i, c := range counts {
				v -= weights[i] * local.Marginal(c+1)
			}
			return v
		},
		finish: func(mean float64, _, _ int, _ estimators.Local) float64 {
			return mean
		},
	}
}

func checkTerms(signals []*signal.Signal, terms []Term) error {
	dim, err := signal.CommonDimension(signals)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return fmt.Errorf("%w: no marginal terms", ErrInvalidParameter)
	}
	if len(signals) == 0 {
		return nil
	}
	for i, t := range terms {
		if t.DimBegin < 0 || t.DimEnd <= t.DimBegin || t.DimEnd > dim {
			return fmt.Errorf("%w: term %d covers [%d, %d) of %d dimensions", ErrInvalidParameter, i, t.DimBegin, t.DimEnd, dim)
		}
	}
	return nil
}

// channels is a half-open channel range of a joined signal.
type channels struct{ begin, end int }

// join merges variables trial by trial. Every variable must hold the same
// number of trials, each of a single dimension. The returned ranges locate
// every variable in the joined channels.
func join(variables ...[]*signal.Signal) ([]*signal.Signal, []channels, error) {
	ranges := make([]channels, len(variables))
	col := 0
	for i, v := range variables {
		dim, err := signal.CommonDimension(v)
		if err != nil {
			return nil, nil, fmt.Errorf("variable %d: %w", i, err)
		}
		ranges[i] = channels{col, col + dim}
		col += dim
	}

	joint, err := signal.MergeSets(variables...)
	if err != nil {
		return nil, nil, err
	}
	return joint, ranges, nil
}

func (e *Estimator) combination(name string, joint []*signal.Signal, terms []Term) (float64, error) {
	if signal.TotalSamples(joint) == 0 {
		return math.NaN(), nil
	}
	if err := checkTerms(joint, terms); err != nil {
		return math.NaN(), err
	}
	return e.single(joint, terms, spatial.Maximum, combinationEstimate(name, terms))
}

func (e *Estimator) temporalCombination(name string, joint []*signal.Signal, terms []Term) (*signal.Signal, error) {
	if len(joint) > 0 {
		if err := checkTerms(joint, terms); err != nil {
			return nil, err
		}
	}
	return e.temporal(joint, terms, spatial.Maximum, combinationEstimate(name, terms))
}

// MutualInformation estimates the mutual information (for more than two
// variables, the total correlation) between variables. variables[i] holds
// the trials of variable i; all variables need the same number of trials.
// The sample of variable i stamped t is paired with the other variables at
// time t+lags[i]. A nil lags means no lag.
func (e *Estimator) MutualInformation(variables [][]*signal.Signal, lags []int) (float64, error) {
	joint, terms, err := mutualInformationSpace(variables, lags)
	if err != nil {
		return math.NaN(), err
	}
	return e.combination("mutual_information", joint, terms)
}

// TemporalMutualInformation is the temporal form of MutualInformation.
func (e *Estimator) TemporalMutualInformation(variables [][]*signal.Signal, lags []int) (*signal.Signal, error) {
	joint, terms, err := mutualInformationSpace(variables, lags)
	if err != nil {
		return nil, err
	}
	return e.temporalCombination("mutual_information", joint, terms)
}

func mutualInformationSpace(variables [][]*signal.Signal, lags []int) ([]*signal.Signal, []Term, error) {
	if len(variables) < 2 {
		return nil, nil, fmt.Errorf("%w: mutual information needs at least two variables, got %d", ErrInvalidParameter, len(variables))
	}
	if lags != nil && len(lags) != len(variables) {
		return nil, nil, fmt.Errorf("%w: %d lags for %d variables", ErrInvalidParameter, len(lags), len(variables))
	}

	lagged := make([][]*signal.Signal, len(variables))
	for i, v := range variables {
		lag := 0
		if lags != nil {
			lag = lags[i]
		}
		lagged[i] = delay(v, lag)
	}

	joint, ranges, err := join(lagged...)
	if err != nil {
		return nil, nil, err
	}
	terms := make([]Term, len(ranges))
	for i, r := range ranges {
		terms[i] = Term{DimBegin: r.begin, DimEnd: r.end, Weight: 1}
	}
	return joint, terms, nil
}

// delay re-stamps every trial so that its sample at t moves to t+lag.
func delay(trials []*signal.Signal, lag int) []*signal.Signal {
	if lag == 0 {
		return trials
	}
	out := make([]*signal.Signal, len(trials))
	for i, s := range trials {
		out[i] = s.WithTimeOffset(s.TimeOffset() + lag)
	}
	return out
}

// PartialMutualInformation estimates the conditional mutual information
// I(X; Y | Z) of time-aligned trials:
// H(X,Z) + H(Z,Y) - H(Z) - H(X,Z,Y).
func (e *Estimator) PartialMutualInformation(x, y, z []*signal.Signal) (float64, error) {
	joint, terms, err := partialMutualInformationSpace(x, y, z)
	if err != nil {
		return math.NaN(), err
	}
	return e.combination("partial_mutual_information", joint, terms)
}

// TemporalPartialMutualInformation is the temporal form of
// PartialMutualInformation.
func (e *Estimator) TemporalPartialMutualInformation(x, y, z []*signal.Signal) (*signal.Signal, error) {
	joint, terms, err := partialMutualInformationSpace(x, y, z)
	if err != nil {
		return nil, err
	}
	return e.temporalCombination("partial_mutual_information", joint, terms)
}

func partialMutualInformationSpace(x, y, z []*signal.Signal) ([]*signal.Signal, []Term, error) {
	joint, r, err := join(x, z, y)
	if err != nil {
		return nil, nil, err
	}
	rx, rz, ry := r[0], r[1], r[2]
	return joint, conditionalTerms(rx.begin, rz.begin, rz.end, ry.end), nil
}

// conditionalTerms returns the terms of I(A; B | C) for a joint laid out as
// [A | C | B] with A = [a, c), C = [c, b), B = [b, end).
func conditionalTerms(a, c, b, end int) []Term {
	return []Term{
		{DimBegin: a, DimEnd: b, Weight: 1},
		{DimBegin: c, DimEnd: end, Weight: 1},
		{DimBegin: c, DimEnd: b, Weight: -1},
	}
}

// TransferEntropy estimates the transfer entropy from X to Y: the mutual
// information between the past of X and the next sample of Y given the past
// of Y. Pasts are delay embeddings with the given factor and lag dt; the
// next sample is dt steps ahead.
func (e *Estimator) TransferEntropy(x, y []*signal.Signal, factor, dt int) (float64, error) {
	joint, terms, err := transferEntropySpace(x, y, nil, factor, dt)
	if err != nil {
		return math.NaN(), err
	}
	return e.combination("transfer_entropy", joint, terms)
}

// TemporalTransferEntropy is the temporal form of TransferEntropy.
func (e *Estimator) TemporalTransferEntropy(x, y []*signal.Signal, factor, dt int) (*signal.Signal, error) {
	joint, terms, err := transferEntropySpace(x, y, nil, factor, dt)
	if err != nil {
		return nil, err
	}
	return e.temporalCombination("transfer_entropy", joint, terms)
}

// PartialTransferEntropy estimates the transfer entropy from X to Y with the
// past of Z added to the condition.
func (e *Estimator) PartialTransferEntropy(x, y, z []*signal.Signal, factor, dt int) (float64, error) {
	if z == nil {
		return math.NaN(), fmt.Errorf("%w: no conditioning variable", ErrInvalidParameter)
	}
	joint, terms, err := transferEntropySpace(x, y, z, factor, dt)
	if err != nil {
		return math.NaN(), err
	}
	return e.combination("partial_transfer_entropy", joint, terms)
}

// TemporalPartialTransferEntropy is the temporal form of
// PartialTransferEntropy.
func (e *Estimator) TemporalPartialTransferEntropy(x, y, z []*signal.Signal, factor, dt int) (*signal.Signal, error) {
	if z == nil {
		return nil, fmt.Errorf("%w: no conditioning variable", ErrInvalidParameter)
	}
	joint, terms, err := transferEntropySpace(x, y, z, factor, dt)
	if err != nil {
		return nil, err
	}
	return e.temporalCombination("partial_transfer_entropy", joint, terms)
}

// transferEntropySpace lays out [xPast | zPast | yPast | yFuture] (zPast
// only with a conditioning variable). yFuture is re-stamped dt steps back so
// that it merges with the past it follows.
func transferEntropySpace(x, y, z []*signal.Signal, factor, dt int) ([]*signal.Signal, []Term, error) {
	xPast, err := embedAll(x, factor, dt)
	if err != nil {
		return nil, nil, err
	}
	yPast, err := embedAll(y, factor, dt)
	if err != nil {
		return nil, nil, err
	}
	yFuture := make([]*signal.Signal, len(y))
	if err := embedding.DelayEmbedFutureSet(y, yFuture, factor, 0, dt); err != nil {
		return nil, nil, err
	}
	yFuture = delay(yFuture, -dt)

	if z == nil {
		joint, r, err := join(xPast, yPast, yFuture)
		if err != nil {
			return nil, nil, err
		}
		return joint, conditionalTerms(r[0].begin, r[1].begin, r[1].end, r[2].end), nil
	}

	zPast, err := embedAll(z, factor, dt)
	if err != nil {
		return nil, nil, err
	}
	joint, r, err := join(xPast, zPast, yPast, yFuture)
	if err != nil {
		return nil, nil, err
	}
	return joint, conditionalTerms(r[0].begin, r[1].begin, r[2].end, r[3].end), nil
}

func embedAll(trials []*signal.Signal, factor, dt int) ([]*signal.Signal, error) {
	out := make([]*signal.Signal, len(trials))
	if err := embedding.DelayEmbedSet(trials, out, factor, 0, dt); err != nil {
		return nil, err
	}
	return out, nil
}
