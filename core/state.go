package core

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// Status values stored in the trailing slot of a State. The kernel writes
// StatusDiverged when it detects a fatal numerical condition; the driver
// checks the slot after every step.
const (
	StatusOK       = 0.0
	StatusDiverged = 1.0
)

// State is the opaque optimizer state: a fixed-layout float64 vector holding
// p coefficient slots followed by the intercept, the running log-likelihood,
// the number of rows folded into the state, and a trailing status slot.
//
// A State is immutable once published by the step that produced it. Kernels
// build a new State for every update; nothing mutates a prior one in place.
type State struct {
	v []float64
	p int
}

// auxiliary slot offsets relative to p
const (
	slotIntercept = 0
	slotLogLik    = 1
	slotRows      = 2
	slotStatus    = 3
	auxSlots      = 4
)

// NewState returns the all-zero baseline state for p features.
func NewState(p int) *State {
	if p <= 0 {
		panic(fmt.Sprintf("core: state dimension must be positive, got %d", p))
	}
	return &State{v: make([]float64, p+auxSlots), p: p}
}

// Dim returns the number of coefficient slots.
func (s *State) Dim() int { return s.p }

// Clone returns a deep copy. Kernels clone the incoming state before
// accumulating, which is what keeps states immutable across iterations.
func (s *State) Clone() *State {
	c := &State{v: make([]float64, len(s.v)), p: s.p}
	copy(c.v, s.v)
	return c
}

// Coef returns the j-th coefficient.
func (s *State) Coef(j int) float64 { return s.v[j] }

// SetCoef sets the j-th coefficient.
func (s *State) SetCoef(j int, x float64) { s.v[j] = x }

// Coefs returns a copy of the coefficient vector.
func (s *State) Coefs() []float64 {
	out := make([]float64, s.p)
	copy(out, s.v[:s.p])
	return out
}

// Intercept returns the intercept slot.
func (s *State) Intercept() float64 { return s.v[s.p+slotIntercept] }

// SetIntercept sets the intercept slot.
func (s *State) SetIntercept(x float64) { s.v[s.p+slotIntercept] = x }

// LogLik returns the running log-likelihood accumulated by the last pass.
func (s *State) LogLik() float64 { return s.v[s.p+slotLogLik] }

// SetLogLik sets the running log-likelihood slot.
func (s *State) SetLogLik(x float64) { s.v[s.p+slotLogLik] = x }

// Rows returns the number of rows folded into this state.
func (s *State) Rows() float64 { return s.v[s.p+slotRows] }

// SetRows sets the folded-row count.
func (s *State) SetRows(n float64) { s.v[s.p+slotRows] = n }

// Status returns the trailing status slot.
func (s *State) Status() float64 { return s.v[s.p+slotStatus] }

// SetStatus writes the trailing status slot.
func (s *State) SetStatus(code float64) { s.v[s.p+slotStatus] = code }

// Failed reports whether the kernel flagged this state as numerically bad,
// either via the status slot or by producing non-finite values.
func (s *State) Failed() bool {
	if s.Status() != StatusOK {
		return true
	}
	for _, x := range s.v[:s.p+slotRows] {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// stateBlob is the gob wire form of a State.
type stateBlob struct {
	P int
	V []float64
}

// GobEncode implements gob.GobEncoder.
func (s *State) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stateBlob{P: s.p, V: s.v}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *State) GobDecode(data []byte) error {
	var blob stateBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return err
	}
	if blob.P <= 0 || len(blob.V) != blob.P+auxSlots {
		return fmt.Errorf("core: malformed state blob, p=%d len=%d", blob.P, len(blob.V))
	}
	s.p = blob.P
	s.v = blob.V
	return nil
}
