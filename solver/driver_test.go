package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/n0madic/go-elastic-net/core"
	"github.com/n0madic/go-elastic-net/igd"
	"github.com/n0madic/go-elastic-net/statestore"
)

func singleModeParams(lambda float64) core.Hyperparameters {
	hp := core.Defaults(lambda)
	hp.Mode = core.ModeSingle
	hp.Parallelism = 1
	return hp
}

func TestNewRejectsBadParameters(t *testing.T) {
	hp := core.Defaults(0.1)
	hp.Alpha = 2
	if _, err := New(&mockKernel{}, hp); err == nil {
		t.Error("New accepted alpha outside [0,1]")
	}

	hp = core.Defaults(0.1)
	hp.Path = []float64{1, 2} // increasing
	if _, err := New(&mockKernel{}, hp); err == nil {
		t.Error("New accepted an increasing explicit path")
	}

	var perr *core.ParameterError
	hp = core.Defaults(0.1)
	hp.StepSize = -1
	_, err := New(&mockKernel{}, hp)
	if !errors.As(err, &perr) {
		t.Errorf("got %T, want *ParameterError", err)
	}
}

func TestRunRejectsEmptySource(t *testing.T) {
	d, err := New(&mockKernel{}, singleModeParams(0.1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var derr *core.DataError
	if _, err := d.Run(core.SliceSource{}); !errors.As(err, &derr) {
		t.Errorf("empty source: got %v, want DataError", err)
	}

	allMissing := core.SliceSource{{Features: []float64{math.NaN()}, Response: 1}}
	if _, err := d.Run(allMissing); !errors.As(err, &derr) {
		t.Errorf("all-missing source: got %v, want DataError", err)
	}
}

// Rows with mismatched feature counts must be rejected up front: a wide row
// would otherwise write past the coefficient block of the first row's layout.
func TestRunRejectsRaggedRows(t *testing.T) {
	ragged := core.SliceSource{
		{Features: []float64{1}, Response: 1},
		{Features: []float64{1, 2, 3, 4, 5, 6}, Response: 2},
	}

	d, err := New(igd.NewGaussian(), singleModeParams(0.1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var derr *core.DataError
	if _, err := d.Run(ragged); !errors.As(err, &derr) {
		t.Fatalf("ragged rows: got %v, want DataError", err)
	}

	// One extra feature on a single row must also be caught, not silently
	// absorbed into the intercept estimate.
	oneWide := core.SliceSource{
		{Features: []float64{1}, Response: 1},
		{Features: []float64{2}, Response: 2},
		{Features: []float64{3, math.Pi}, Response: 3},
	}
	if _, err := d.Run(oneWide); !errors.As(err, &derr) {
		t.Fatalf("one wide row: got %v, want DataError", err)
	}
}

// Scenario: warm-start disabled, single path position, driver steps until
// the distance drops below tolerance.
func TestRunSinglePosition(t *testing.T) {
	k := &mockKernel{distSeq: []float64{1, 1, 1}} // converges on the 4th test
	hp := singleModeParams(0.1)
	hp.WarmStart = false

	d, err := New(k, hp)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fit, err := d.Run(testRows(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if fit.Iterations != 4 {
		t.Errorf("iterations = %d, want 4", fit.Iterations)
	}
	if fit.PathPos != 1 || len(fit.Path) != 1 {
		t.Errorf("path = %v at pos %d, want single position", fit.Path, fit.PathPos)
	}
	if fit.Summary.Status != core.Converged {
		t.Errorf("status = %v, want converged", fit.Summary.Status)
	}
	if k.stepCalls != 4 {
		t.Errorf("step calls = %d, want 4", k.stepCalls)
	}
}

func TestConvergenceTestedOnlyAfterUpdate(t *testing.T) {
	k := &mockKernel{}
	hp := singleModeParams(0.1)
	hp.WarmStart = false

	d, _ := New(k, hp)
	if _, err := d.Run(testRows(10)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if k.distCalls == 0 {
		t.Fatal("convergence was never tested")
	}
	if k.stepsAtFirstDistance < 1 {
		t.Error("convergence tested before any update was applied")
	}
}

// Scenario: iteration budget exhausted while still mid-path is fatal.
func TestRunBudgetExhaustedMidPath(t *testing.T) {
	k := &mockKernel{distDefault: 1}
	hp := singleModeParams(0.1)
	hp.MaxIter = 5
	hp.Path = []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 0.1}

	d, _ := New(k, hp)
	fit, err := d.Run(testRows(10))
	if fit != nil {
		t.Fatal("got a fit despite an unreached target strength")
	}

	var cerr *core.ConvergenceError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want *ConvergenceError", err)
	}
	if cerr.MaxIter != 5 || cerr.PathLen != 10 {
		t.Errorf("error = %+v", cerr)
	}
	if k.stepCalls != 5 {
		t.Errorf("step calls = %d, want exactly the budget", k.stepCalls)
	}
}

// Scenario: budget exhausted at the final position is a soft stop.
func TestRunSoftStopAtFinalPosition(t *testing.T) {
	k := &mockKernel{distDefault: 1}
	hp := singleModeParams(0.1)
	hp.MaxIter = 5
	hp.WarmStart = false

	d, _ := New(k, hp)
	fit, err := d.Run(testRows(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fit.Summary.Status != core.NotConverged {
		t.Errorf("status = %v, want not converged", fit.Summary.Status)
	}
	if fit.Iterations != 5 {
		t.Errorf("iterations = %d, want 5", fit.Iterations)
	}
}

func TestRunTraversesWholePath(t *testing.T) {
	// Every position converges on its second test.
	k := &mockKernel{distSeq: []float64{1, 0, 1, 0, 1, 0, 1, 0}, distDefault: 1}
	hp := singleModeParams(0.1)
	hp.Path = []float64{2.0, 0.63, 0.2, 0.1}

	d, _ := New(k, hp)
	fit, err := d.Run(testRows(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fit.PathPos != 4 {
		t.Errorf("final position = %d, want 4", fit.PathPos)
	}
	if fit.Iterations != 8 {
		t.Errorf("iterations = %d, want 8", fit.Iterations)
	}
	if fit.Summary.Status != core.Converged {
		t.Errorf("status = %v, want converged", fit.Summary.Status)
	}
}

func TestRunKernelDivergence(t *testing.T) {
	k := &mockKernel{diverge: true}
	d, _ := New(k, singleModeParams(0.1))

	_, err := d.Run(testRows(10))
	var nerr *core.NumericalError
	if !errors.As(err, &nerr) {
		t.Fatalf("got %v, want *NumericalError", err)
	}
	if nerr.Iteration != 1 {
		t.Errorf("failed at iteration %d, want 1", nerr.Iteration)
	}
}

func TestRunModeIsNeverSwitched(t *testing.T) {
	// Single accumulation: every step sees the whole dataset, no merges.
	k := &mockKernel{distSeq: []float64{1, 1}}
	hp := singleModeParams(0.1)
	hp.WarmStart = false

	d, _ := New(k, hp)
	if _, err := d.Run(testRows(40)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, n := range k.stepRows {
		if n != 40 {
			t.Errorf("single-mode step %d saw %d rows, want 40", i, n)
		}
	}
	if k.merges != 0 {
		t.Errorf("single-mode run merged %d times", k.merges)
	}

	// Parallel reduction: every step sees one partition, merges join them.
	k = &mockKernel{}
	hp = core.Defaults(0.1)
	hp.WarmStart = false
	hp.Mode = core.ModeParallel
	hp.Parallelism = 4

	d, _ = New(k, hp)
	if _, err := d.Run(testRows(40)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, n := range k.stepRows {
		if n != 10 {
			t.Errorf("parallel step %d saw %d rows, want 10", i, n)
		}
	}
	if k.merges != 3 {
		t.Errorf("merges = %d, want 3", k.merges)
	}
}

func TestWarmStartCarriesStateForward(t *testing.T) {
	store := statestore.New()
	hp := singleModeParams(0.05)
	hp.Path = []float64{0.5, 0.2, 0.05}
	hp.StepSize = 0.05
	hp.Tolerance = 1e-5

	d, err := New(igd.NewGaussian(), hp, WithStore(store), WithKeepHistory())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fit, err := d.Run(testRows(30))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fit.PathPos != 3 {
		t.Fatalf("final position = %d, want 3", fit.PathPos)
	}

	hist, err := store.History(statestore.Ungrouped)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != fit.Iterations+1 {
		t.Fatalf("history has %d records, want %d", len(hist), fit.Iterations+1)
	}

	for i, rec := range hist {
		if rec.Iter != i {
			t.Fatalf("record %d has iteration %d, history must be dense", i, rec.Iter)
		}
		if i > 0 && rec.PathPos < hist[i-1].PathPos {
			t.Error("path position decreased across iterations")
		}
		// Warm start: only iteration 0 is the all-zero baseline.
		if i > 0 && rec.State.Intercept() == 0 && rec.State.Coef(0) == 0 {
			t.Errorf("iteration %d reset to the baseline state", i)
		}
	}
	if hist[len(hist)-1].PathPos != 3 {
		t.Errorf("last record at position %d, want 3", hist[len(hist)-1].PathPos)
	}
}

func TestRunReleasesHistory(t *testing.T) {
	store := statestore.New()
	hp := singleModeParams(0.1)
	hp.WarmStart = false

	d, _ := New(&mockKernel{}, hp, WithStore(store))
	if _, err := d.Run(testRows(10)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if store.MaxIteration(statestore.Ungrouped) != -1 {
		t.Error("history not released after the run")
	}
}

func TestRunEmitsToSink(t *testing.T) {
	sink := &sliceSink{}
	hp := singleModeParams(0.1)
	hp.WarmStart = false

	src := core.SliceSource{
		{Features: []float64{1}, Response: 1},
		{Features: []float64{math.NaN()}, Response: 1},
		{Features: []float64{2}, Response: 2},
	}
	d, _ := New(&mockKernel{}, hp, WithSink(sink))
	if _, err := d.Run(src); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.results) != 1 {
		t.Fatalf("sink received %d results, want 1", len(sink.results))
	}
	res := sink.results[0]
	if res.Group != "" || res.Summary == nil {
		t.Errorf("unexpected result %+v", res)
	}
	if res.RowsUsed != 2 || res.RowsSkipped != 1 {
		t.Errorf("rows used/skipped = %d/%d, want 2/1", res.RowsUsed, res.RowsSkipped)
	}
}

// End to end with the Gaussian kernel: a warm-started fit on clean linear
// data reaches the target strength and recovers the generating line.
func TestRunGaussianEndToEnd(t *testing.T) {
	hp := singleModeParams(1e-3)
	hp.StepSize = 0.02
	hp.Warmup = 4

	d, err := New(igd.NewGaussian(), hp)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fit, err := d.Run(testRows(50))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if fit.Summary.Status != core.Converged {
		t.Fatalf("status = %v, want converged", fit.Summary.Status)
	}
	if fit.Path[len(fit.Path)-1] != 1e-3 {
		t.Errorf("path ends at %v, want the target strength", fit.Path[len(fit.Path)-1])
	}
	if math.Abs(fit.Summary.Coef[0]-2) > 0.3 {
		t.Errorf("coef = %v, want about 2", fit.Summary.Coef[0])
	}
	if math.Abs(fit.Summary.Intercept-1) > 0.3 {
		t.Errorf("intercept = %v, want about 1", fit.Summary.Intercept)
	}
}
