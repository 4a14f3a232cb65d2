package core

import "fmt"

// ParameterError reports a malformed or out-of-range hyperparameter. It is
// surfaced before any iteration starts and is never retryable.
type ParameterError struct {
	Param  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("elasticnet: invalid parameter %q: %s", e.Param, e.Reason)
}

// ConvergenceError reports that the global iteration budget was exhausted
// before the final path position was reached. The run produced no usable
// model for the target strength.
type ConvergenceError struct {
	MaxIter  int
	Position int
	PathLen  int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf(
		"elasticnet: target regularization strength not reached at position %d of %d after %d iterations: increase the iteration budget",
		e.Position, e.PathLen, e.MaxIter)
}

// NumericalError reports kernel-detected divergence or instability. In
// grouped mode it is recorded per group without aborting sibling groups.
type NumericalError struct {
	Group     string
	Iteration int
}

func (e *NumericalError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("elasticnet: kernel reported numerical failure at iteration %d", e.Iteration)
	}
	return fmt.Sprintf("elasticnet: kernel reported numerical failure for group %q at iteration %d", e.Group, e.Iteration)
}

// DataError reports an unusable data source, detected before the run starts.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "elasticnet: " + e.Reason
}
