package solver

import (
	"github.com/n0madic/go-elastic-net/core"
)

// phaseKind tags the variants of the iteration state machine.
type phaseKind int

const (
	phaseStart phaseKind = iota
	phaseAtPos
	phaseDone
	phaseFailed
)

// phase is the machine's position: path position pos (1-based) at global
// iteration iter. pos and iter are meaningful only for phaseAtPos.
type phase struct {
	kind phaseKind
	pos  int
	iter int
}

// machine drives one model (one group, or the whole dataset) along its
// regularization path. The same machine runs both ungrouped and grouped
// fits; grouped mode just keeps one machine per key.
type machine struct {
	group string
	rows  []core.Row
	path  []float64
	ph    phase

	// terminal outcome
	status core.FitStatus
	err    error

	iters    int // iterations actually performed
	finalPos int // highest path position reached

	rowsUsed    int
	rowsSkipped int
}

func newMachine(group string, rows []core.Row, skipped int, path []float64) *machine {
	return &machine{
		group:       group,
		rows:        rows,
		path:        path,
		ph:          phase{kind: phaseStart},
		rowsUsed:    len(rows),
		rowsSkipped: skipped,
	}
}

// active reports whether the machine still has transitions to take.
func (m *machine) active() bool {
	return m.ph.kind == phaseStart || m.ph.kind == phaseAtPos
}

// tick takes one transition of the state machine.
//
// From START it materializes the baseline state at iteration 0 of position 1.
// From AT_PATH_POS(p,k) it either terminates on budget exhaustion, or
// invokes the step operator once, records the new state, and then checks the
// kernel status slot and the convergence distance to decide between staying,
// advancing with the current state carried forward, DONE and FAILED.
func (d *Driver) tick(m *machine) error {
	n := len(m.path)

	switch m.ph.kind {
	case phaseStart:
		p := len(m.rows[0].Features)
		base := d.kernel.Init(p)
		if err := d.store.Append(m.group, 1, 0, base); err != nil {
			return err
		}
		m.ph = phase{kind: phaseAtPos, pos: 1, iter: 0}
		m.finalPos = 1
		return nil

	case phaseAtPos:
		pos, k := m.ph.pos, m.ph.iter

		// Budget check for the step that would produce iteration k+1.
		// Mid-path exhaustion is fatal; at the final position the last
		// state is returned flagged as not converged.
		if k+1 > d.hp.MaxIter {
			if pos < n {
				m.ph = phase{kind: phaseFailed}
				m.status = core.NotConverged
				m.err = &core.ConvergenceError{MaxIter: d.hp.MaxIter, Position: pos, PathLen: n}
				return nil
			}
			m.ph = phase{kind: phaseDone}
			m.status = core.NotConverged
			return nil
		}

		rec, ok, err := d.store.Latest(m.group)
		if err != nil {
			return err
		}
		if !ok {
			return &core.DataError{Reason: "no recorded state for running machine"}
		}
		cur := rec.State

		next := d.invoker.step(d.kernel, cur, m.rows, m.path[pos-1], &d.hp)
		if err := d.store.Append(m.group, pos, k+1, next); err != nil {
			return err
		}
		m.iters = k + 1

		if next.Failed() {
			m.ph = phase{kind: phaseFailed}
			m.status = core.Diverged
			m.err = &core.NumericalError{Group: m.group, Iteration: k + 1}
			return nil
		}

		if _, conv := d.conv.converged(cur, next); conv {
			if pos == n {
				m.ph = phase{kind: phaseDone}
				m.status = core.Converged
				return nil
			}
			// Warm start: the next, smaller strength begins from this
			// position's solution, never from baseline.
			m.ph = phase{kind: phaseAtPos, pos: pos + 1, iter: k + 1}
			m.finalPos = pos + 1
			return nil
		}
		m.ph = phase{kind: phaseAtPos, pos: pos, iter: k + 1}
		return nil

	default:
		return nil
	}
}
