package core

import (
	"fmt"
	"math"
	"runtime"
)

// Mode selects how a full-dataset pass is executed. The mode is fixed for
// the whole run; the driver never switches modes on its own.
type Mode int

const (
	// ModeParallel partitions the dataset, computes independent partial
	// states from the same starting state and combines them with the
	// kernel's associative merge.
	ModeParallel Mode = iota
	// ModeSingle folds the whole dataset sequentially through the kernel.
	// Required when the optimizer's trajectory depends on true sequential
	// updates.
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeParallel:
		return "parallel"
	case ModeSingle:
		return "single"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultWarmup is the path length used when warm-starting without an
// explicit strength sequence.
const DefaultWarmup = 15

// Hyperparameters configures one run. The set is immutable for the run's
// duration; grouped fitting shares one set across all groups.
type Hyperparameters struct {
	Lambda      float64   // target regularization strength, positive
	Alpha       float64   // elastic-net mixing coefficient in [0,1]
	MaxIter     int       // global iteration budget across the whole path
	Tolerance   float64   // convergence threshold on the kernel distance
	StepSize    float64   // kernel step size, positive
	Mode        Mode      // parallel reduction or single accumulation
	Normalize   bool      // standardize features before fitting
	WarmStart   bool      // traverse a descending strength path
	Warmup      int       // auto-generated path length, default DefaultWarmup
	Path        []float64 // optional explicit strength sequence
	Parallelism int       // partition count in parallel mode, default GOMAXPROCS
}

// Defaults returns the hyperparameter set used when the caller leaves
// everything unset except the target strength.
func Defaults(lambda float64) Hyperparameters {
	return Hyperparameters{
		Lambda:      lambda,
		Alpha:       0.5,
		MaxIter:     10000,
		Tolerance:   1e-4,
		StepSize:    0.01,
		Mode:        ModeParallel,
		WarmStart:   true,
		Warmup:      DefaultWarmup,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

// Validate checks every field, returning a ParameterError for the first
// violation found. Explicit path contents are validated separately by the
// path generator.
func (h *Hyperparameters) Validate() error {
	if h.Lambda <= 0 || math.IsNaN(h.Lambda) || math.IsInf(h.Lambda, 0) {
		return &ParameterError{Param: "lambda", Reason: fmt.Sprintf("must be a positive finite number, got %v", h.Lambda)}
	}
	if h.Alpha < 0 || h.Alpha > 1 || math.IsNaN(h.Alpha) {
		return &ParameterError{Param: "alpha", Reason: fmt.Sprintf("must be in [0,1], got %v", h.Alpha)}
	}
	if h.MaxIter <= 0 {
		return &ParameterError{Param: "max_iter", Reason: fmt.Sprintf("must be a positive integer, got %d", h.MaxIter)}
	}
	if h.Tolerance < 0 || math.IsNaN(h.Tolerance) || math.IsInf(h.Tolerance, 0) {
		return &ParameterError{Param: "tolerance", Reason: fmt.Sprintf("must be finite and non-negative, got %v", h.Tolerance)}
	}
	if h.StepSize <= 0 || math.IsNaN(h.StepSize) || math.IsInf(h.StepSize, 0) {
		return &ParameterError{Param: "step_size", Reason: fmt.Sprintf("must be a positive finite number, got %v", h.StepSize)}
	}
	if h.Mode != ModeParallel && h.Mode != ModeSingle {
		return &ParameterError{Param: "mode", Reason: fmt.Sprintf("unknown concurrency mode %d", int(h.Mode))}
	}
	if h.Warmup <= 0 {
		return &ParameterError{Param: "warmup", Reason: fmt.Sprintf("must be a positive integer, got %d", h.Warmup)}
	}
	if h.Parallelism < 0 {
		return &ParameterError{Param: "parallelism", Reason: fmt.Sprintf("must not be negative, got %d", h.Parallelism)}
	}
	return nil
}
