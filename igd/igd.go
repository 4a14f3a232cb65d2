// Package igd provides reference incremental-gradient-descent kernels for
// the solver's pluggable numeric boundary: a Gaussian (squared loss) kernel
// and a Binomial (logistic loss) kernel, both applying the elastic-net
// proximal update.
package igd

import (
	"math"

	"github.com/n0madic/go-elastic-net/core"
)

// softThreshold applies the L1 proximal operator.
func softThreshold(w, thr float64) float64 {
	switch {
	case w > thr:
		return w - thr
	case w < -thr:
		return w + thr
	default:
		return 0
	}
}

// finite reports whether x is a usable number.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// checkDivergence flags the state when any coefficient, the intercept or the
// running log-likelihood left the finite range.
func checkDivergence(st *core.State) {
	for j := 0; j < st.Dim(); j++ {
		if !finite(st.Coef(j)) {
			st.SetStatus(core.StatusDiverged)
			return
		}
	}
	if !finite(st.Intercept()) || !finite(st.LogLik()) {
		st.SetStatus(core.StatusDiverged)
	}
}

// mergeAveraged combines two partial states by row-count-weighted averaging
// of coefficients and intercept, summing log-likelihoods and row counts.
// The operation is associative and order-independent, which is what makes
// the parallel reduction reproducible across partitionings.
func mergeAveraged(a, b *core.State) *core.State {
	na, nb := a.Rows(), b.Rows()
	if na == 0 {
		return b.Clone()
	}
	if nb == 0 {
		return a.Clone()
	}
	out := a.Clone()
	total := na + nb
	for j := 0; j < a.Dim(); j++ {
		out.SetCoef(j, (a.Coef(j)*na+b.Coef(j)*nb)/total)
	}
	out.SetIntercept((a.Intercept()*na + b.Intercept()*nb) / total)
	out.SetLogLik(a.LogLik() + b.LogLik())
	out.SetRows(total)
	if a.Status() != core.StatusOK || b.Status() != core.StatusOK {
		out.SetStatus(core.StatusDiverged)
	}
	return out
}

// coefDistance is the L2 norm of the coefficient-and-intercept delta.
func coefDistance(prev, cur *core.State) float64 {
	var sum float64
	for j := 0; j < prev.Dim(); j++ {
		d := cur.Coef(j) - prev.Coef(j)
		sum += d * d
	}
	d := cur.Intercept() - prev.Intercept()
	sum += d * d
	return math.Sqrt(sum)
}
