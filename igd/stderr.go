package igd

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// stdErrors computes per-coefficient standard errors from the weighted
// normal matrix X'WX, with the intercept appended as a trailing constant
// column and a ridge term on the coefficient diagonal. When the Cholesky
// factorization fails the diagonal of the normal matrix is used as a
// fallback, the same way a near-singular covariance is handled elsewhere in
// this module.
func stdErrors(features [][]float64, w []float64, sigma2, ridge float64) []float64 {
	if len(features) == 0 {
		return nil
	}
	p := len(features[0])
	d := p + 1
	xtx := mat.NewSymDense(d, nil)
	for i, x := range features {
		wi := w[i]
		for j := 0; j < p; j++ {
			for k := j; k < p; k++ {
				xtx.SetSym(j, k, xtx.At(j, k)+wi*x[j]*x[k])
			}
			xtx.SetSym(j, p, xtx.At(j, p)+wi*x[j])
		}
		xtx.SetSym(p, p, xtx.At(p, p)+wi)
	}
	for j := 0; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+ridge)
	}

	se := make([]float64, p)
	var chol mat.Cholesky
	if chol.Factorize(xtx) {
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err == nil {
			for j := 0; j < p; j++ {
				se[j] = math.Sqrt(math.Max(sigma2*inv.At(j, j), 0))
			}
			return se
		}
	}

	// Diagonal fallback.
	for j := 0; j < p; j++ {
		diag := xtx.At(j, j)
		if diag <= 0 {
			se[j] = math.NaN()
			continue
		}
		se[j] = math.Sqrt(sigma2 / diag)
	}
	return se
}
