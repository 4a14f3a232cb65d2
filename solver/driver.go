// Package solver drives the elastic-net optimizer along a descending
// regularization path until convergence, an exhausted iteration budget, or a
// kernel-reported numerical failure. It owns the iteration state machine;
// the numeric update operator itself is a pluggable core.Kernel.
package solver

import (
	"github.com/n0madic/go-elastic-net/core"
	"github.com/n0madic/go-elastic-net/lambdapath"
	"github.com/n0madic/go-elastic-net/statestore"
)

// Fit is the outcome of an ungrouped run.
type Fit struct {
	Summary     *core.Summary
	Path        []float64
	PathPos     int // highest path position reached, 1-based
	Iterations  int
	RowsUsed    int
	RowsSkipped int
}

// Sink receives finalized per-group results as they become terminal. The
// ungrouped driver emits a single record with an empty group key.
type Sink interface {
	Emit(res GroupResult)
}

// Driver runs the iteration state machine for a single model.
type Driver struct {
	kernel  core.Kernel
	hp      core.Hyperparameters
	store   *statestore.Store
	invoker *invoker
	conv    converger
	sink    Sink
	keep    bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithStore supplies the state-history store. The default is an in-memory
// store without compression.
func WithStore(st *statestore.Store) Option {
	return func(d *Driver) { d.store = st }
}

// WithSink registers a result sink.
func WithSink(s Sink) Option {
	return func(d *Driver) { d.sink = s }
}

// WithKeepHistory retains the state history after the run instead of
// releasing it, for post-hoc auditing through the store.
func WithKeepHistory() Option {
	return func(d *Driver) { d.keep = true }
}

// New validates the hyperparameters and builds a driver. An explicit
// strength sequence, if present, is validated here as well so a malformed
// path fails before any data is touched.
func New(kernel core.Kernel, hp core.Hyperparameters, opts ...Option) (*Driver, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if len(hp.Path) > 0 {
		if err := lambdapath.Validate(hp.Path); err != nil {
			return nil, err
		}
	}
	d := &Driver{
		kernel:  kernel,
		hp:      hp,
		invoker: newInvoker(&hp),
		conv:    converger{kernel: kernel, tol: hp.Tolerance},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		d.store = statestore.New()
	}
	return d, nil
}

// prepare cleans a source and resolves the strength path for its rows.
func (d *Driver) prepare(src core.Source) (rows []core.Row, skipped int, path []float64, err error) {
	if src == nil || src.Len() == 0 {
		return nil, 0, nil, &core.DataError{Reason: "data source is empty"}
	}
	rows, skipped = core.Clean(src)
	if len(rows) == 0 {
		return nil, skipped, nil, &core.DataError{Reason: "every row has missing values"}
	}
	if len(rows[0].Features) == 0 {
		return nil, skipped, nil, &core.DataError{Reason: "rows have no features"}
	}
	for _, r := range rows {
		if len(r.Features) != len(rows[0].Features) {
			return nil, skipped, nil, &core.DataError{Reason: "rows have inconsistent feature counts"}
		}
	}
	if d.hp.Normalize {
		rows, _, _ = core.Standardize(rows)
	}
	path, err = lambdapath.ForRun(&d.hp, core.CrossMoments(rows))
	if err != nil {
		return nil, skipped, nil, err
	}
	return rows, skipped, path, nil
}

// Run fits one model over the source. It fails with a ConvergenceError when
// the global iteration budget dies before the final path position, with a
// NumericalError when the kernel flags divergence, and with a DataError for
// an unusable source. Budget exhaustion at the final position is a soft
// stop: the last state is finalized and flagged NotConverged.
func (d *Driver) Run(src core.Source) (*Fit, error) {
	rows, skipped, path, err := d.prepare(src)
	if err != nil {
		return nil, err
	}

	m := newMachine(statestore.Ungrouped, rows, skipped, path)
	for m.active() {
		if err := d.tick(m); err != nil {
			return nil, err
		}
	}

	fit, err := d.finish(m)
	if !d.keep {
		d.store.Release()
	}
	if err != nil {
		return nil, err
	}
	return fit, nil
}

// finish extracts the terminal result of a machine from the store.
func (d *Driver) finish(m *machine) (*Fit, error) {
	if m.err != nil {
		if d.sink != nil {
			d.sink.Emit(GroupResult{
				Group:       m.group,
				Err:         m.err,
				Iterations:  m.iters,
				RowsUsed:    m.rowsUsed,
				RowsSkipped: m.rowsSkipped,
			})
		}
		return nil, m.err
	}

	rec, ok, err := d.store.Latest(m.group)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &core.DataError{Reason: "run finished without a recorded state"}
	}

	sum, err := d.kernel.Finalize(rec.State, m.rows, &d.hp)
	if err != nil {
		return nil, err
	}
	sum.Status = m.status

	fit := &Fit{
		Summary:     sum,
		Path:        m.path,
		PathPos:     m.finalPos,
		Iterations:  m.iters,
		RowsUsed:    m.rowsUsed,
		RowsSkipped: m.rowsSkipped,
	}
	if d.sink != nil {
		d.sink.Emit(GroupResult{
			Group:       m.group,
			Summary:     sum,
			Iterations:  m.iters,
			RowsUsed:    m.rowsUsed,
			RowsSkipped: m.rowsSkipped,
		})
	}
	return fit, nil
}
