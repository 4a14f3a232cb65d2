package core

// FitStatus classifies the terminal state of a fit.
type FitStatus int

const (
	// Converged means the distance between the last two states fell below
	// the tolerance at the final path position.
	Converged FitStatus = iota
	// NotConverged means the iteration budget ran out at the final path
	// position; the coefficients are the last state reached.
	NotConverged
	// Diverged means the kernel flagged a fatal numerical condition.
	Diverged
)

func (s FitStatus) String() string {
	switch s {
	case Converged:
		return "converged"
	case NotConverged:
		return "not converged"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Summary is the reportable outcome of a fit, produced by a kernel's
// Finalize from a terminal state.
type Summary struct {
	Coef      []float64
	Intercept float64
	StdErr    []float64
	LogLik    float64
	Status    FitStatus
}

// Kernel is the pluggable numeric update operator. The solver drives it but
// never looks inside the states it produces beyond the trailing status slot.
//
// Step must treat the incoming state as read-only and return a new value.
// Merge must be associative and order-independent (modulo floating-point
// associativity) so the parallel reduction is reproducible regardless of
// partition count.
type Kernel interface {
	// Init returns the baseline state for p features, used at iteration 0
	// of the first path position.
	Init(p int) *State

	// Step folds one partition (or the whole dataset, in single mode)
	// into a new state starting from the given one.
	Step(from *State, rows []Row, lambda float64, hp *Hyperparameters) *State

	// Merge combines two partial states produced from the same starting
	// state by Step over disjoint partitions.
	Merge(a, b *State) *State

	// Distance returns a non-negative scalar between consecutive states.
	// The driver advances the path when it falls below the tolerance.
	Distance(prev, cur *State) float64

	// Finalize turns a terminal state into a Summary. The rows are the
	// cleaned dataset the state was fitted on, available for statistics
	// that need a final pass, such as standard errors.
	Finalize(st *State, rows []Row, hp *Hyperparameters) (*Summary, error)
}
