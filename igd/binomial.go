package igd

import (
	"math"

	"github.com/n0madic/go-elastic-net/core"
)

// probability clamp keeping the log-likelihood finite
const probEps = 1e-12

// Binomial is the logistic-loss kernel for binary responses in {0,1} with an
// elastic-net penalty. Same proximal update shape as the Gaussian kernel,
// with the residual replaced by the probability error.
type Binomial struct{}

// NewBinomial returns the logistic-loss kernel.
func NewBinomial() *Binomial { return &Binomial{} }

// Init returns the all-zero baseline state for p features.
func (b *Binomial) Init(p int) *core.State { return core.NewState(p) }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Step folds rows into a new state starting from the given one.
func (b *Binomial) Step(from *core.State, rows []core.Row, lambda float64, hp *core.Hyperparameters) *core.State {
	st := from.Clone()
	st.SetLogLik(0)
	st.SetRows(0)
	st.SetStatus(core.StatusOK)

	eta := hp.StepSize
	l2 := lambda * (1 - hp.Alpha)
	thr := eta * lambda * hp.Alpha
	var loglik float64

	for _, r := range rows {
		z := st.Intercept()
		for j, x := range r.Features {
			z += st.Coef(j) * x
		}
		p := sigmoid(z)
		pc := math.Min(math.Max(p, probEps), 1-probEps)
		loglik += r.Response*math.Log(pc) + (1-r.Response)*math.Log(1-pc)
		resid := p - r.Response

		for j, x := range r.Features {
			w := st.Coef(j) - eta*(resid*x+l2*st.Coef(j))
			st.SetCoef(j, softThreshold(w, thr))
		}
		st.SetIntercept(st.Intercept() - eta*resid)
	}

	st.SetLogLik(loglik)
	st.SetRows(float64(len(rows)))
	checkDivergence(st)
	return st
}

// Merge combines two partial states by row-weighted averaging.
func (b *Binomial) Merge(x, y *core.State) *core.State { return mergeAveraged(x, y) }

// Distance is the relative log-likelihood delta between consecutive states.
// The likelihood is the natural progress measure for logistic fits, where
// coefficient norms can move slowly near the optimum.
func (b *Binomial) Distance(prev, cur *core.State) float64 {
	return math.Abs(cur.LogLik()-prev.LogLik()) / (math.Abs(prev.LogLik()) + 1)
}

// Finalize extracts coefficients, Fisher-information standard errors and the
// binomial log-likelihood.
func (b *Binomial) Finalize(st *core.State, rows []core.Row, hp *core.Hyperparameters) (*core.Summary, error) {
	if st.Failed() {
		return &core.Summary{Status: core.Diverged}, &core.NumericalError{}
	}
	n := len(rows)

	var loglik float64
	features := make([][]float64, n)
	weights := make([]float64, n)
	for i, r := range rows {
		z := st.Intercept()
		for j, x := range r.Features {
			z += st.Coef(j) * x
		}
		p := sigmoid(z)
		pc := math.Min(math.Max(p, probEps), 1-probEps)
		loglik += r.Response*math.Log(pc) + (1-r.Response)*math.Log(1-pc)
		features[i] = r.Features
		weights[i] = p * (1 - p)
	}

	ridge := hp.Lambda * (1 - hp.Alpha) * float64(n)
	sum := &core.Summary{
		Coef:      st.Coefs(),
		Intercept: st.Intercept(),
		StdErr:    stdErrors(features, weights, 1, ridge),
		LogLik:    loglik,
		Status:    core.Converged,
	}
	if math.IsNaN(loglik) {
		sum.Status = core.Diverged
	}
	return sum, nil
}
