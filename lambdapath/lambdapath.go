// Package lambdapath builds the descending regularization-strength sequence
// that warm-started runs traverse, from a data-derived maximum strength down
// to the caller's target.
package lambdapath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/n0madic/go-elastic-net/core"
)

// alphaFloor bounds the mixing coefficient away from zero when computing the
// maximal strength; in the pure-ridge limit no finite strength zeroes the
// coefficients, so the L1 share is treated as at least this much.
const alphaFloor = 1e-3

// Max returns the smallest strength that drives every coefficient to zero,
// derived from the per-feature second cross-moments of features against the
// response.
func Max(alpha float64, moments []float64) float64 {
	a := math.Max(alpha, alphaFloor)
	var m float64
	for _, v := range moments {
		if av := math.Abs(v); av > m {
			m = av
		}
	}
	return m / a
}

// Generate interpolates n strengths geometrically from the data-derived
// maximum down to target. The result is strictly non-increasing and its last
// element equals target exactly. When the maximum does not exceed the
// target, the path collapses to the single element [target].
func Generate(target, alpha float64, moments []float64, n int) ([]float64, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, &core.ParameterError{Param: "lambda", Reason: fmt.Sprintf("must be a positive finite number, got %v", target)}
	}
	if n <= 0 {
		return nil, &core.ParameterError{Param: "warmup", Reason: fmt.Sprintf("must be a positive integer, got %d", n)}
	}
	lambdaMax := Max(alpha, moments)
	if lambdaMax <= target || n == 1 {
		return []float64{target}, nil
	}
	// Equal-ratio spacing between lambdaMax and target.
	ratio := math.Pow(target/lambdaMax, 1/float64(n-1))
	path := make([]float64, n)
	path[0] = lambdaMax
	for i := 1; i < n-1; i++ {
		path[i] = path[i-1] * ratio
	}
	path[n-1] = target
	return path, nil
}

// Validate checks an explicit caller-supplied path: non-empty, every value a
// finite non-negative number, non-increasing order.
func Validate(path []float64) error {
	if len(path) == 0 {
		return &core.ParameterError{Param: "path", Reason: "explicit strength sequence must have at least one element"}
	}
	for i, v := range path {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &core.ParameterError{Param: "path", Reason: fmt.Sprintf("strength at position %d must be a finite non-negative number, got %v", i+1, v)}
		}
		if i > 0 && v > path[i-1] {
			return &core.ParameterError{Param: "path", Reason: fmt.Sprintf("strengths must be non-increasing, position %d rises from %v to %v", i+1, path[i-1], v)}
		}
	}
	return nil
}

// Parse reads a comma- or space-separated strength list, as supplied on a
// textual configuration surface, and validates it with Validate.
func Parse(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, &core.ParameterError{Param: "path", Reason: "explicit strength sequence is empty"}
	}
	path := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &core.ParameterError{Param: "path", Reason: fmt.Sprintf("strength %q is not a number", f)}
		}
		path[i] = v
	}
	if err := Validate(path); err != nil {
		return nil, err
	}
	return path, nil
}

// ForRun resolves the path one run will traverse: the explicit sequence if
// the caller supplied one, the single target strength when warm-starting is
// off, otherwise a generated path of Warmup points ending at the target.
func ForRun(hp *core.Hyperparameters, moments []float64) ([]float64, error) {
	if len(hp.Path) > 0 {
		if err := Validate(hp.Path); err != nil {
			return nil, err
		}
		out := make([]float64, len(hp.Path))
		copy(out, hp.Path)
		return out, nil
	}
	if !hp.WarmStart {
		return []float64{hp.Lambda}, nil
	}
	return Generate(hp.Lambda, hp.Alpha, moments, hp.Warmup)
}
