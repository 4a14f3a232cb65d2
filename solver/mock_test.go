package solver

import (
	"sync"

	"github.com/n0madic/go-elastic-net/core"
)

// mockKernel records how the driver exercises the kernel boundary. Distances
// are served from distSeq in call order; once exhausted it reports 0
// (converged). Each step bumps the first coefficient so consecutive states
// always differ.
type mockKernel struct {
	mu sync.Mutex

	distSeq     []float64
	distDefault float64 // returned once distSeq is exhausted
	diverge     bool

	stepCalls int
	stepRows  []int
	merges    int
	distCalls int

	// number of steps already taken when Distance was first consulted
	stepsAtFirstDistance int
}

func (m *mockKernel) Init(p int) *core.State { return core.NewState(p) }

func (m *mockKernel) Step(from *core.State, rows []core.Row, lambda float64, hp *core.Hyperparameters) *core.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepCalls++
	m.stepRows = append(m.stepRows, len(rows))

	st := from.Clone()
	st.SetCoef(0, st.Coef(0)+1)
	st.SetRows(float64(len(rows)))
	if m.diverge {
		st.SetStatus(core.StatusDiverged)
	}
	return st
}

func (m *mockKernel) Merge(a, b *core.State) *core.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merges++

	st := a.Clone()
	st.SetRows(a.Rows() + b.Rows())
	if b.Status() != core.StatusOK {
		st.SetStatus(b.Status())
	}
	return st
}

func (m *mockKernel) Distance(prev, cur *core.State) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.distCalls == 0 {
		m.stepsAtFirstDistance = m.stepCalls
	}
	m.distCalls++
	if m.distCalls <= len(m.distSeq) {
		return m.distSeq[m.distCalls-1]
	}
	return m.distDefault
}

func (m *mockKernel) Finalize(st *core.State, rows []core.Row, hp *core.Hyperparameters) (*core.Summary, error) {
	return &core.Summary{
		Coef:      st.Coefs(),
		Intercept: st.Intercept(),
		LogLik:    st.LogLik(),
		Status:    core.Converged,
	}, nil
}

// sliceSink collects emitted results.
type sliceSink struct {
	mu      sync.Mutex
	results []GroupResult
}

func (s *sliceSink) Emit(res GroupResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
}

func testRows(n int) core.SliceSource {
	rows := make([]core.Row, n)
	for i := range rows {
		x := float64(i) / float64(n)
		rows[i] = core.Row{Features: []float64{x}, Response: 2*x + 1}
	}
	return rows
}
