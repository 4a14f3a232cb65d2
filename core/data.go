package core

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Row is one observation: a feature vector and its response value.
type Row struct {
	Features []float64
	Response float64
}

// HasMissing reports whether any feature or the response is NaN. Such rows
// are excluded from fitting and counted, never silently dropped.
func (r Row) HasMissing() bool {
	if math.IsNaN(r.Response) {
		return true
	}
	for _, x := range r.Features {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// Source is a read-only, order-irrelevant sequence of rows. The solver only
// needs length and random access; how the rows are produced is up to the
// caller.
type Source interface {
	Len() int
	At(i int) Row
}

// SliceSource adapts an in-memory row slice to Source.
type SliceSource []Row

func (s SliceSource) Len() int     { return len(s) }
func (s SliceSource) At(i int) Row { return s[i] }

// Clean materializes the usable rows of a source, counting and excluding
// rows with missing values. The returned slice is freshly allocated.
func Clean(src Source) (rows []Row, skipped int) {
	n := src.Len()
	rows = make([]Row, 0, n)
	for i := 0; i < n; i++ {
		r := src.At(i)
		if r.HasMissing() {
			skipped++
			continue
		}
		rows = append(rows, r)
	}
	return rows, skipped
}

// Partition splits rows into at most k contiguous, non-empty chunks for the
// parallel reduction. The union of the chunks is exactly rows.
func Partition(rows []Row, k int) [][]Row {
	if k < 1 {
		k = 1
	}
	if k > len(rows) {
		k = len(rows)
	}
	parts := make([][]Row, 0, k)
	size := (len(rows) + k - 1) / k
	for lo := 0; lo < len(rows); lo += size {
		hi := lo + size
		if hi > len(rows) {
			hi = len(rows)
		}
		parts = append(parts, rows[lo:hi])
	}
	return parts
}

// CrossMoments returns, per feature, the mean of feature*response over the
// rows. These second cross-moments bound the regularization strength above
// which every coefficient is driven to zero.
func CrossMoments(rows []Row) []float64 {
	if len(rows) == 0 {
		return nil
	}
	p := len(rows[0].Features)
	m := make([]float64, p)
	for _, r := range rows {
		for j := 0; j < p && j < len(r.Features); j++ {
			m[j] += r.Features[j] * r.Response
		}
	}
	floats.Scale(1/float64(len(rows)), m)
	return m
}

// Standardize returns a copy of rows with each feature centered and scaled
// to unit variance, along with the per-feature means and standard
// deviations used. Constant features keep a scale of 1 so they pass through
// unchanged after centering.
func Standardize(rows []Row) (scaled []Row, means, stds []float64) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	p := len(rows[0].Features)
	means = make([]float64, p)
	stds = make([]float64, p)
	n := float64(len(rows))
	for _, r := range rows {
		floats.Add(means, r.Features)
	}
	floats.Scale(1/n, means)
	for _, r := range rows {
		for j, x := range r.Features {
			d := x - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	scaled = make([]Row, len(rows))
	for i, r := range rows {
		f := make([]float64, p)
		for j, x := range r.Features {
			f[j] = (x - means[j]) / stds[j]
		}
		scaled[i] = Row{Features: f, Response: r.Response}
	}
	return scaled, means, stds
}
