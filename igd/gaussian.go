package igd

import (
	"math"

	"github.com/n0madic/go-elastic-net/core"
)

// Gaussian is the squared-loss kernel for linear regression with an
// elastic-net penalty. Each Step folds its rows through one incremental
// gradient pass: an L2-shrunk gradient step per coefficient followed by the
// L1 soft-threshold, intercept unpenalized.
type Gaussian struct{}

// NewGaussian returns the squared-loss kernel.
func NewGaussian() *Gaussian { return &Gaussian{} }

// Init returns the all-zero baseline state for p features.
func (g *Gaussian) Init(p int) *core.State { return core.NewState(p) }

// Step folds rows into a new state starting from the given one.
func (g *Gaussian) Step(from *core.State, rows []core.Row, lambda float64, hp *core.Hyperparameters) *core.State {
	st := from.Clone()
	st.SetLogLik(0)
	st.SetRows(0)
	st.SetStatus(core.StatusOK)

	eta := hp.StepSize
	l2 := lambda * (1 - hp.Alpha)
	thr := eta * lambda * hp.Alpha
	var loglik float64

	for _, r := range rows {
		pred := st.Intercept()
		for j, x := range r.Features {
			pred += st.Coef(j) * x
		}
		resid := pred - r.Response
		loglik -= 0.5 * resid * resid

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
func (g *Gaussian) Merge(a, b *core.State) *core.State { return mergeAveraged(a, b) }

// Distance is the L2 norm of the coefficient delta between consecutive
// states.
func (g *Gaussian) Distance(prev, cur *core.State) float64 { return coefDistance(prev, cur) }

// Finalize extracts coefficients, their standard errors from the
// ridge-regularized normal matrix, and the Gaussian log-likelihood.
func (g *Gaussian) Finalize(st *core.State, rows []core.Row, hp *core.Hyperparameters) (*core.Summary, error) {
	if st.Failed() {
		return &core.Summary{Status: core.Diverged}, &core.NumericalError{}
	}
	n := len(rows)
	p := st.Dim()

	var rss float64
	features := make([][]float64, n)
	weights := make([]float64, n)
	for i, r := range rows {
		pred := st.Intercept()
		for j, x := range r.Features {
			pred += st.Coef(j) * x
		}
		resid := pred - r.Response
		rss += resid * resid
		features[i] = r.Features
		weights[i] = 1
	}

	dof := float64(n - p - 1)
	if dof < 1 {
		dof = 1
	}
	sigma2 := rss / dof
	ridge := hp.Lambda * (1 - hp.Alpha) * float64(n)

	sum := &core.Summary{
		Coef:      st.Coefs(),
		Intercept: st.Intercept(),
		StdErr:    stdErrors(features, weights, sigma2, ridge),
		LogLik:    -0.5 * rss,
		Status:    core.Converged,
	}
	if math.IsNaN(sum.LogLik) {
		sum.Status = core.Diverged
	}
	return sum, nil
}
