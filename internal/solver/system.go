package solver

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/san-kum/jointsim/internal/dynamo"
)

const DefaultGravity = 9.81

type Config struct {
	Gravity float64
}

// HingeSpec describes one single-degree-of-freedom pin joint carrying a
// point mass at Length from the axis.
type HingeSpec struct {
	Name    string
	Mass    float64
	Length  float64
	Damping float64
	// Axis is the rotation axis in the ground frame.
	Axis r3.Vector
}

type System struct {
	cfg    Config
	integ  dynamo.Integrator
	hinges []HingeSpec
	slots  []slot

	state        *State
	prevQ, prevU []float64
	initialized  bool
	stepped      bool
	steps        int
}

func New(cfg Config, integ dynamo.Integrator) *System {
	return &System{cfg: cfg, integ: integ}
}

// AddHinge registers a hinge and returns its handle. Topology is fixed once
// the system is initialized.
func (s *System) AddHinge(spec HingeSpec) (Mobilizer, error) {
	if s.initialized {
		return Mobilizer{}, dynamo.ErrAlreadyInitialized
	}
	if spec.Mass <= 0 || spec.Length <= 0 {
		return Mobilizer{}, fmt.Errorf("hinge %s: mass and length must be positive", spec.Name)
	}
	if spec.Axis.Norm() == 0 {
		spec.Axis = zAxis
	}

	idx := len(s.hinges)
	s.hinges = append(s.hinges, spec)
	s.slots = append(s.slots, slot{
		qStart: idx, nq: 1,
		uStart: idx, nu: 1,
		frame: AlignZ(spec.Axis),
	})
	return Mobilizer{index: idx, valid: true}, nil
}

// Init realizes a fresh, zeroed state.
func (s *System) Init() {
	s.state = newState(s.slots)
	s.initialized = true
	s.stepped = false
	s.steps = 0
}

// Teardown drops the live state. Handles stay valid for the next Init.
func (s *System) Teardown() {
	s.state = nil
	s.initialized = false
	s.stepped = false
	s.steps = 0
}

// Rebuild tears down and re-initializes, returning the fresh state.
func (s *System) Rebuild() *State {
	s.Teardown()
	s.Init()
	return s.state
}

func (s *System) Initialized() bool { return s.initialized }

// Stepped reports whether at least one step has completed since Init.
func (s *System) Stepped() bool { return s.stepped }

// State is the last realized state. It is nil before Init.
func (s *System) State() *State { return s.state }

// AdvancedState is the state the next step integrates from.
func (s *System) AdvancedState() *State { return s.state }

func (s *System) Steps() int { return s.steps }

func (s *System) NumMobilizers() int { return len(s.hinges) }

func (s *System) Hinge(m Mobilizer) (HingeSpec, bool) {
	if m.IsEmptyHandle() || m.index >= len(s.hinges) {
		return HingeSpec{}, false
	}
	return s.hinges[m.index], true
}

// Step advances the live state by dt. A step that produces a NaN or
// infinite coordinate is rolled back and reported as a StepError.
func (s *System) Step(dt float64) error {
	if !s.initialized {
		return dynamo.ErrNotInitialized
	}
	st := s.state
	s.prevQ = append(s.prevQ[:0], st.Q...)
	s.prevU = append(s.prevU[:0], st.U...)

	s.integ.Step(s, st.Q, st.U, st.F, st.Time, dt)
	if !dynamo.Finite(st.Q, st.U) {
		copy(st.Q, s.prevQ)
		copy(st.U, s.prevU)
		return &dynamo.StepError{Step: s.steps, Time: st.Time, Wrapped: dynamo.ErrInvalidState}
	}

	st.Time += dt
	s.steps++
	s.stepped = true
	return nil
}

// Accelerations implements dynamo.Dynamics. Each hinge swings its point
// mass independently under the applied torque, viscous damping and the
// part of gravity acting about its axis.
func (s *System) Accelerations(udot, q, u, f []float64, t float64) {
	for i, h := range s.hinges {
		tau := 0.0
		if i < len(f) {
			tau = f[i]
		}
		inertia := h.Mass * h.Length * h.Length
		udot[i] = (tau - h.Damping*u[i] - h.Mass*s.gravityAbout(h.Axis)*h.Length*math.Sin(q[i])) / inertia
	}
}

// Energy is the kinetic plus potential energy of st, zero with every hinge
// at rest hanging down. A nil state has no energy.
func (s *System) Energy(st *State) float64 {
	if st == nil {
		return 0
	}
	total := 0.0
	for i := range s.hinges {
		total += s.HingeEnergy(st, Mobilizer{index: i, valid: true})
	}
	return total
}

// HingeEnergy is one hinge's share of Energy.
func (s *System) HingeEnergy(st *State, m Mobilizer) float64 {
	h, ok := s.Hinge(m)
	if !ok {
		return 0
	}
	q, u := m.OneQ(st, 0), m.OneU(st, 0)
	v := h.Length * u
	return 0.5*h.Mass*v*v + h.Mass*s.gravityAbout(h.Axis)*h.Length*(1-math.Cos(q))
}

// gravityAbout is the gravity component that can swing a hinge about axis.
func (s *System) gravityAbout(axis r3.Vector) float64 {
	a := axis.Normalize()
	vertical := a.Z
	return s.cfg.Gravity * math.Sqrt(math.Max(0, 1-vertical*vertical))
}
