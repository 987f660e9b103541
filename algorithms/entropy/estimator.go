// Package entropy estimates differential entropies and entropy combinations
// (mutual information, transfer entropy and their partial forms) from
// k-nearest-neighbor distances of signal ensembles.
//
// Every estimate follows the same pattern: find the k-th nearest neighbor of
// each point in the joint space, turn its distance (and, for combinations,
// the neighbor counts inside the same ball in marginal subspaces) into a
// local contribution, average the contributions over the accepted points and
// fold in the normalization of the estimator. Points whose k-th neighbor
// coincides with them are not accepted; with no accepted point the estimate
// is NaN.
//
// Temporal forms repeat the estimate for a window of
// 2*TimeWindowRadius+1 time steps centered on every time step of the
// signals, reusing the same incrementally updated point sets. Each result
// sample is stamped with the start of its window.
//
// References:
// - Kozachenko, L.F., Leonenko, N.N. (1987). "Sample estimate of the entropy of a random vector"
// - Kraskov, A., Stögbauer, H., Grassberger, P. (2004). "Estimating mutual information"
// - Leonenko, N., Pronzato, L., Savani, V. (2008). "A class of Rényi information estimators for multidimensional densities"
// - Frenzel, S., Pompe, B. (2007). "Partial mutual information for coupling analysis of multivariate time series"
package entropy

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/RyanBlaney/sonido-entropy/config"
	"github.com/RyanBlaney/sonido-entropy/logging"
)

// ErrInvalidParameter is returned for parameters outside their valid range.
var ErrInvalidParameter = errors.New("entropy: invalid parameter")

// Estimator computes nearest-neighbor entropy estimates with a fixed
// configuration. It holds no state between calls and is safe for concurrent
// use.
type Estimator struct {
	cfg    config.EstimatorConfig
	norm   spatial.Norm
	local  estimators.LocalEstimator
	logger logging.Logger
}

// NewEstimator returns an estimator with the default configuration.
func NewEstimator() *Estimator {
	return &Estimator{
		cfg:    config.DefaultEstimatorConfig(),
		norm:   spatial.Euclidean,
		local:  estimators.Digamma,
		logger: logging.WithFields(logging.Fields{"component": "entropy"}),
	}
}

// NewEstimatorWithConfig validates cfg and returns an estimator using it.
func NewEstimatorWithConfig(cfg config.EstimatorConfig) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	norm, err := cfg.NormType()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	local, err := cfg.Local()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	return &Estimator{
		cfg:    cfg,
		norm:   norm,
		local:  local,
		logger: logging.WithFields(logging.Fields{"component": "entropy"}),
	}, nil
}

// Config returns the configuration of e.
func (e *Estimator) Config() config.EstimatorConfig { return e.cfg }
