package solver

import (
	"sync"

	"github.com/n0madic/go-elastic-net/core"
)

// GroupResult is the per-group outcome of a grouped run. A nil Summary is
// the null marker for a failed group; Err carries the failure.
type GroupResult struct {
	Group       string
	Summary     *core.Summary
	Err         error
	Iterations  int
	RowsUsed    int
	RowsSkipped int
}

// GroupedFit collects the outcomes of a grouped run in key order, plus the
// aggregate count of failed groups.
type GroupedFit struct {
	Results []GroupResult
	Failed  int
}

// GroupedDriver runs an independent iteration state machine per group key
// with one shared hyperparameter set. All groups advance within the same
// physical tick loop, one step invocation per group per tick, but each
// group's trajectory is fully independent: a stalled or failed group never
// blocks or alters a sibling.
type GroupedDriver struct {
	d *Driver
}

// NewGrouped validates the hyperparameters and builds a grouped driver.
func NewGrouped(kernel core.Kernel, hp core.Hyperparameters, opts ...Option) (*GroupedDriver, error) {
	d, err := New(kernel, hp, opts...)
	if err != nil {
		return nil, err
	}
	return &GroupedDriver{d: d}, nil
}

// Run fits one model per group. Only an empty source fails the whole run;
// per-group convergence and numerical failures are recorded in that group's
// result and counted in Failed.
func (g *GroupedDriver) Run(src core.GroupedSource) (*GroupedFit, error) {
	if src == nil || len(src.Keys()) == 0 {
		return nil, &core.DataError{Reason: "grouped data source has no groups"}
	}

	keys := src.Keys()
	machines := make([]*machine, 0, len(keys))
	results := make(map[string]GroupResult, len(keys))

	for _, key := range keys {
		rows, skipped, path, err := g.d.prepare(src.Group(key))
		if err != nil {
			results[key] = GroupResult{Group: key, Err: err, RowsUsed: len(rows), RowsSkipped: skipped}
			continue
		}
		machines = append(machines, newMachine(key, rows, skipped, path))
	}

	// One tick advances every still-active group, each via its own step
	// invocation. Group states are independent, so the fan-out needs no
	// locking beyond the store's own.
	active := machines
	for len(active) > 0 {
		var wg sync.WaitGroup
		for _, m := range active {
			wg.Add(1)
			go func(m *machine) {
				defer wg.Done()
				if err := g.d.tick(m); err != nil {
					m.ph = phase{kind: phaseFailed}
					m.status = core.Diverged
					m.err = err
				}
			}(m)
		}
		wg.Wait()

		// Filter into a fresh slice: machines is walked again below, so
		// compacting survivors in place would overwrite terminal entries.
		next := make([]*machine, 0, len(active))
		for _, m := range active {
			if m.active() {
				next = append(next, m)
			}
		}
		active = next
	}

	for _, m := range machines {
		results[m.group] = g.collect(m)
	}
	if !g.d.keep {
		g.d.store.Release()
	}

	fit := &GroupedFit{Results: make([]GroupResult, 0, len(keys))}
	for _, key := range keys {
		res := results[key]
		if res.Summary == nil {
			fit.Failed++
		}
		if g.d.sink != nil {
			g.d.sink.Emit(res)
		}
		fit.Results = append(fit.Results, res)
	}
	return fit, nil
}

// collect turns a terminal machine into its group's result.
func (g *GroupedDriver) collect(m *machine) GroupResult {
	res := GroupResult{
		Group:       m.group,
		Iterations:  m.iters,
		RowsUsed:    m.rowsUsed,
		RowsSkipped: m.rowsSkipped,
	}
	if m.err != nil {
		res.Err = m.err
		return res
	}

	rec, ok, err := g.d.store.Latest(m.group)
	if err != nil {
		res.Err = err
		return res
	}
	if !ok {
		res.Err = &core.DataError{Reason: "group finished without a recorded state"}
		return res
	}

	sum, err := g.d.kernel.Finalize(rec.State, m.rows, &g.d.hp)
	if err != nil {
		res.Err = err
		return res
	}
	sum.Status = m.status
	res.Summary = sum
	return res
}
