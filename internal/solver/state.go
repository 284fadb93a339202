package solver

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

type slot struct {
	qStart, nq int
	uStart, nu int
	frame      quat.Number
}

// State holds the instantaneous Q, U and applied mobility forces of every
// mobilizer in a system.
type State struct {
	Time float64
	Q    []float64
	U    []float64
	F    []float64

	slots []slot
}

func newState(slots []slot) *State {
	nq, nu := 0, 0
	for _, s := range slots {
		nq += s.nq
		nu += s.nu
	}
	return &State{
		Q:     make([]float64, nq),
		U:     make([]float64, nu),
		F:     make([]float64, nu),
		slots: slots,
	}
}

// NewState returns a zeroed state with the same layout as s.
func (s *State) NewState() *State {
	return newState(s.slots)
}

func (s *State) NumMobilizers() int { return len(s.slots) }

// Mobilizer is a handle to one joint's mobilities inside a system. The zero
// value is an empty handle.
type Mobilizer struct {
	index int
	valid bool
}

func (m Mobilizer) IsEmptyHandle() bool { return !m.valid }

func (m Mobilizer) Index() int { return m.index }

func (m Mobilizer) slot(s *State) (slot, bool) {
	if !m.valid || s == nil || m.index >= len(s.slots) {
		return slot{}, false
	}
	return s.slots[m.index], true
}

func (m Mobilizer) NumQ(s *State) int {
	sl, ok := m.slot(s)
	if !ok {
		return 0
	}
	return sl.nq
}

func (m Mobilizer) NumU(s *State) int {
	sl, ok := m.slot(s)
	if !ok {
		return 0
	}
	return sl.nu
}

func (m Mobilizer) OneQ(s *State, i int) float64 {
	sl, ok := m.slot(s)
	if !ok || i < 0 || i >= sl.nq {
		return 0
	}
	return s.Q[sl.qStart+i]
}

func (m Mobilizer) OneU(s *State, i int) float64 {
	sl, ok := m.slot(s)
	if !ok || i < 0 || i >= sl.nu {
		return 0
	}
	return s.U[sl.uStart+i]
}

func (m Mobilizer) SetOneQ(s *State, i int, v float64) {
	sl, ok := m.slot(s)
	if !ok || i < 0 || i >= sl.nq {
		return
	}
	s.Q[sl.qStart+i] = v
}

func (m Mobilizer) SetOneU(s *State, i int, v float64) {
	sl, ok := m.slot(s)
	if !ok || i < 0 || i >= sl.nu {
		return
	}
	s.U[sl.uStart+i] = v
}

// SetOneForce sets the applied generalized force on one mobility. The
// force persists until changed or the state is rebuilt.
func (m Mobilizer) SetOneForce(s *State, i int, f float64) {
	sl, ok := m.slot(s)
	if !ok || i < 0 || i >= sl.nu {
		return
	}
	s.F[sl.uStart+i] = f
}

// AxisInGround returns the z-axis of the outboard frame expressed in the
// ground frame. A hinge turns about that axis, so it does not depend on Q.
func (m Mobilizer) AxisInGround(s *State) r3.Vector {
	sl, ok := m.slot(s)
	if !ok {
		return NaNVector()
	}
	return Rotate(sl.frame, zAxis)
}
