package entropy

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/signal"
)

// DifferentialEntropyKL estimates the differential entropy (in nats) of the
// distribution sampled by signals with the Kozachenko-Leonenko estimator:
//
//	H = -joint(k, n) + ln V_d + d * mean(ln rho_k)
//
// where rho_k is the distance of a point to its k-th nearest neighbor under
// the configured norm and V_d the volume of the unit ball of that norm.
func (e *Estimator) DifferentialEntropyKL(signals []*signal.Signal) (float64, error) {
	if _, err := signal.CommonDimension(signals); err != nil {
		return math.NaN(), err
	}
	return e.single(signals, nil, e.norm, e.klEstimate())
}

// TemporalDifferentialEntropyKL estimates the differential entropy for every
// time step over the window of the configured radius around it.
func (e *Estimator) TemporalDifferentialEntropyKL(signals []*signal.Signal) (*signal.Signal, error) {
	if _, err := signal.CommonDimension(signals); err != nil {
		return nil, err
	}
	return e.temporal(signals, nil, e.norm, e.klEstimate())
}

func (e *Estimator) klEstimate() estimate {
	return estimate{
		name: "differential_entropy_kl",
		point: func(dist float64, _ []int, _ estimators.Local) float64 {
			return 0.5 * math.Log(dist)
		},
		finish: func(mean float64, dim, _ int, local estimators.Local) float64 {
			return -local.Joint() + e.norm.LogUnitBallVolume(dim) + float64(dim)*mean
		},
	}
}

// RenyiEntropyLPS estimates the Rényi entropy of order q with the
// Leonenko-Pronzato-Savani estimator. q == 1 is the differential entropy.
// q must be positive and smaller than k+1.
func (e *Estimator) RenyiEntropyLPS(signals []*signal.Signal, q float64) (float64, error) {
	dim, err := e.checkOrder(signals, q)
	if err != nil {
		return math.NaN(), err
	}
	if q == 1 {
		return e.single(signals, nil, e.norm, e.klEstimate())
	}
	return e.single(signals, nil, e.norm, e.lpsEstimate("renyi_entropy_lps", dim, q, renyi))
}

// TemporalRenyiEntropyLPS is the temporal form of RenyiEntropyLPS.
func (e *Estimator) TemporalRenyiEntropyLPS(signals []*signal.Signal, q float64) (*signal.Signal, error) {
	dim, err := e.checkOrder(signals, q)
	if err != nil {
		return nil, err
	}
	if q == 1 {
		return e.temporal(signals, nil, e.norm, e.klEstimate())
	}
	return e.temporal(signals, nil, e.norm, e.lpsEstimate("renyi_entropy_lps", dim, q, renyi))
}

// TsallisEntropyLPS estimates the Tsallis entropy of order q with the
// Leonenko-Pronzato-Savani estimator. q == 1 is the differential entropy.
// q must be positive and smaller than k+1.
func (e *Estimator) TsallisEntropyLPS(signals []*signal.Signal, q float64) (float64, error) {
	dim, err := e.checkOrder(signals, q)
	if err != nil {
		return math.NaN(), err
	}
	if q == 1 {
		return e.single(signals, nil, e.norm, e.klEstimate())
	}
	return e.single(signals, nil, e.norm, e.lpsEstimate("tsallis_entropy_lps", dim, q, tsallis))
}

// TemporalTsallisEntropyLPS is the temporal form of TsallisEntropyLPS.
func (e *Estimator) TemporalTsallisEntropyLPS(signals []*signal.Signal, q float64) (*signal.Signal, error) {
	dim, err := e.checkOrder(signals, q)
	if err != nil {
		return nil, err
	}
	if q == 1 {
		return e.temporal(signals, nil, e.norm, e.klEstimate())
	}
	return e.temporal(signals, nil, e.norm, e.lpsEstimate("tsallis_entropy_lps", dim, q, tsallis))
}

func (e *Estimator) checkOrder(signals []*signal.Signal, q float64) (int, error) {
	dim, err := signal.CommonDimension(signals)
	if err != nil {
		return 0, err
	}
	if !(q > 0) || q >= float64(e.cfg.KNearest+1) {
		return 0, fmt.Errorf("%w: entropy order q=%g must lie in (0, %d)", ErrInvalidParameter, q, e.cfg.KNearest+1)
	}
	return dim, nil
}

// renyi and tsallis map ln I_q to the entropy of order q.
func renyi(logI, q float64) float64   { return logI / (1 - q) }
func tsallis(logI, q float64) float64 { return -math.Expm1(logI) / (q - 1) }

// lpsEstimate averages rho_k^(d(1-q)) and scales the mean into
//
//	I_q = ((n-1) * C_k * V_d)^(1-q) * mean,  C_k^(1-q) = Γ(k) / Γ(k+1-q)
//
// which estimates the integral of p^q.
func (e *Estimator) lpsEstimate(name string, dim int, q float64, entropy func(logI, q float64) float64) estimate {
	k := e.cfg.KNearest
	power := float64(dim) * (1 - q) / 2

	lgK, _ := math.Lgamma(float64(k))
	lgKQ, _ := math.Lgamma(float64(k) + 1 - q)
	logC := lgK - lgKQ

	return estimate{
		name: name,
		point: func(dist float64, _ []int, _ estimators.Local) float64 {
			return math.Pow(dist, power)
		},
		finish: func(mean float64, d, n int, _ estimators.Local) float64 {
			logI := (1-q)*(math.Log(float64(n-1))+e.norm.LogUnitBallVolume(d)) + logC + math.Log(mean)
			return entropy(logI, q)
		},
	}
}
