// Package estimators implements the local estimators that turn k-nearest
// neighbor counts into local contributions of an entropy sum.
//
// A LocalEstimator is selected by the caller and builds a Local value for one
// query batch from (kNearest, n), where kNearest is the neighbor order used in
// the joint space and n the number of points in the set. Joint returns the
// local joint estimate, Marginal(k) the local estimate for a marginal space in
// which k points (the point itself included) fall inside the joint ball.
//
// All variants are valid for kNearest and k in [1, n-1].
//
// References:
// - Kraskov, A., Stögbauer, H., Grassberger, P. (2004). "Estimating mutual information"
// - Kozachenko, L.F., Leonenko, N.N. (1987). "Sample estimate of the entropy of a random vector"
package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Local is the per-batch estimate built from (kNearest, n).
type Local interface {
	Joint() float64
	Marginal(k int) float64
}

// LocalEstimator constructs a Local for a neighbor order and sample size.
type LocalEstimator func(kNearest, n int) Local

// Log is the naive expectation-of-log estimator:
// joint = ln(kNearest) - ln(n), marginal(k) = ln(k) - ln(n).
func Log(kNearest, n int) Local {
	return logLocal{kNearest: kNearest, logN: math.Log(float64(n))}
}

type logLocal struct {
	kNearest int
	logN     float64
}

func (l logLocal) Joint() float64 {
	return math.Log(float64(l.kNearest)) - l.logN
}

func (l logLocal) Marginal(k int) float64 {
	return math.Log(float64(k)) - l.logN
}

// Digamma replaces the logarithms of Log with the digamma function, which
// removes the leading bias of the expectation-of-log form:
// joint = ψ(kNearest) - ψ(n), marginal(k) = ψ(k) - ψ(n).
func Digamma(kNearest, n int) Local {
	return digammaLocal{kNearest: kNearest, digammaN: mathext.Digamma(float64(n))}
}

type digammaLocal struct {
	kNearest int
	digammaN float64
}

func (l digammaLocal) Joint() float64 {
	return mathext.Digamma(float64(l.kNearest)) - l.digammaN
}

func (l digammaLocal) Marginal(k int) float64 {
	return mathext.Digamma(float64(k)) - l.digammaN
}

// DigammaDensity adds a first-order density correction to the marginal term:
// joint = ψ(kNearest) - ψ(n),
// marginal(k) = joint + ln(1 + ((k - kNearest)/n) * exp(-joint)).
func DigammaDensity(kNearest, n int) Local {
	joint := mathext.Digamma(float64(kNearest)) - mathext.Digamma(float64(n))
	return digammaDensityLocal{
		kNearest: kNearest,
		n:        float64(n),
		joint:    joint,
		invJoint: math.Exp(-joint),
	}
}

type digammaDensityLocal struct {
	kNearest int
	n        float64
	joint    float64
	invJoint float64
}

func (l digammaDensityLocal) Joint() float64 {
	return l.joint
}

func (l digammaDensityLocal) Marginal(k int) float64 {
	return l.joint + math.Log1p(float64(k-l.kNearest)/l.n*l.invJoint)
}

// Names accepted by ParseLocalEstimator.
const (
	NameLog            = "log"
	NameDigamma        = "digamma"
	NameDigammaDensity = "digamma_density"
)

// ParseLocalEstimator maps a configuration name to its constructor.
func ParseLocalEstimator(name string) (LocalEstimator, error) {
	switch name {
	case NameLog:
		return Log, nil
	case NameDigamma, "":
		return Digamma, nil
	case NameDigammaDensity:
		return DigammaDensity, nil
	default:
		return nil, fmt.Errorf("unknown local estimator %q", name)
	}
}
