package solver

import (
	"sync"

	"github.com/n0madic/go-elastic-net/core"
)

// invoker applies one full-dataset pass of the kernel's update operator in
// the concurrency mode fixed at run start. The mode never changes within a
// run; callers that need a true sequential trajectory select single mode and
// get exactly that.
type invoker struct {
	mode        core.Mode
	parallelism int
}

func newInvoker(hp *core.Hyperparameters) *invoker {
	par := hp.Parallelism
	if par == 0 {
		par = 1
	}
	return &invoker{mode: hp.Mode, parallelism: par}
}

// step produces the next state from the current one over the whole dataset.
//
// In parallel mode the rows are partitioned, every partition computes an
// independent partial state from the same starting state, and the partials
// are merged in partition-index order. The kernel's merge is associative and
// order-independent, so the result does not depend on how the fan-out was
// scheduled.
func (iv *invoker) step(k core.Kernel, from *core.State, rows []core.Row, lambda float64, hp *core.Hyperparameters) *core.State {
	if iv.mode == core.ModeSingle || iv.parallelism == 1 || len(rows) < 2 {
		return k.Step(from, rows, lambda, hp)
	}

	parts := core.Partition(rows, iv.parallelism)
	partials := make([]*core.State, len(parts))
	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		go func(i int, part []core.Row) {
			defer wg.Done()
			partials[i] = k.Step(from, part, lambda, hp)
		}(i, part)
	}
	wg.Wait()

	next := partials[0]
	for _, p := range partials[1:] {
		next = k.Merge(next, p)
	}
	return next
}
