package solver

import "github.com/n0madic/go-elastic-net/core"

// converger wraps the kernel-defined state distance with the run tolerance.
// It is only ever consulted with a prior state in hand: the driver starts
// every path position from a materialized state and tests after the first
// update, never against a missing iteration.
type converger struct {
	kernel core.Kernel
	tol    float64
}

// converged returns the distance between consecutive states and whether it
// fell below the tolerance.
func (c *converger) converged(prev, cur *core.State) (float64, bool) {
	d := c.kernel.Distance(prev, cur)
	return d, d < c.tol
}
