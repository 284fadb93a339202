package joint

import (
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/jointsim/internal/metrics"
	"github.com/san-kum/jointsim/internal/solver"
)

// Mobilizer is the solver-side handle of a joint.
type Mobilizer interface {
	IsEmptyHandle() bool
	NumQ(s *solver.State) int
	NumU(s *solver.State) int
	OneQ(s *solver.State, i int) float64
	OneU(s *solver.State, i int) float64
	SetOneQ(s *solver.State, i int, v float64)
	SetOneU(s *solver.State, i int, v float64)
	SetOneForce(s *solver.State, i int, f float64)
	AxisInGround(s *solver.State) r3.Vector
}

// Physics is the part of the solver a joint consults before trusting live
// reads.
type Physics interface {
	Initialized() bool
	Stepped() bool
	State() *solver.State
	AdvancedState() *solver.State
}

// HingeAngleCount is the number of mobilities of a hinge.
const HingeAngleCount = 1

type Option func(*Hinge)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Hinge) {
		h.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(h *Hinge) {
		h.metrics = c
	}
}

// WithAxisFrame sets the frame the local axis is expressed in, relative to
// the world. It defaults to the identity. q is normalized; a zero q is
// taken as the identity.
func WithAxisFrame(q quat.Number) Option {
	return func(h *Hinge) {
		n := quat.Abs(q)
		if n == 0 || math.IsNaN(n) {
			h.axisFrame = solver.Identity
			return
		}
		h.axisFrame = quat.Scale(1/n, q)
	}
}

// Hinge is a single-axis revolute joint backed by a solver mobilizer.
type Hinge struct {
	name      string
	localAxis r3.Vector
	axisFrame quat.Number

	physics  Physics
	mobod    Mobilizer
	attached bool

	cache   MobilityState
	applied []float64

	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewHinge(name string, axis r3.Vector, physics Physics, opts ...Option) *Hinge {
	h := &Hinge{
		name:      name,
		localAxis: axis,
		axisFrame: solver.Identity,
		physics:   physics,
		applied:   make([]float64, HingeAngleCount),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("joint", name))
	return h
}

func (h *Hinge) Name() string { return h.name }

func (h *Hinge) AngleCount() int { return HingeAngleCount }

// Attach binds the joint to its solver mobilizer.
func (h *Hinge) Attach(m Mobilizer) {
	h.mobod = m
	h.attached = m != nil && !m.IsEmptyHandle()
}

// Detach drops the mobilizer handle. The cache is kept.
func (h *Hinge) Detach() {
	h.mobod = nil
	h.attached = false
}

func (h *Hinge) Attached() bool { return h.attached }

func (h *Hinge) hasHandle() bool {
	return h.mobod != nil && !h.mobod.IsEmptyHandle()
}

func (h *Hinge) inRange(index int) bool {
	return index >= 0 && index < h.AngleCount()
}

func (h *Hinge) ready() bool {
	return h.attached && h.physics != nil && h.physics.Initialized()
}

func (h *Hinge) rangeError(op string, index int) {
	h.logger.Error("invalid mobility index", zap.String("op", op), zap.Int("index", index))
	h.metrics.JointRangeError(h.name, op)
}

// SaveState copies the joint's Q and U out of s into the cache. The cache is
// sized on the first save and never resized afterwards. Joints without a
// mobilizer are skipped.
func (h *Hinge) SaveState(s *solver.State) {
	if !h.hasHandle() || s == nil {
		return
	}
	h.cache.save(h.mobod, s)
}

// RestoreState writes the cached Q and U into s. Nothing is written if the
// cache was never filled.
func (h *Hinge) RestoreState(s *solver.State) {
	if !h.hasHandle() || s == nil {
		return
	}
	h.cache.restore(h.mobod, s)
}

// Cache returns a copy of the cached mobility state.
func (h *Hinge) Cache() MobilityState {
	return h.cache.Clone()
}

// SetCache replaces the cache, e.g. with a snapshot loaded from storage.
func (h *Hinge) SetCache(c MobilityState) {
	h.cache = c.Clone()
}

// Velocity returns the live generalized velocity of mobility index.
func (h *Hinge) Velocity(index int) float64 {
	if !h.inRange(index) {
		h.rangeError("velocity", index)
		return math.NaN()
	}
	if !h.ready() {
		h.logger.Debug("velocity read before solver initialized, returning zero")
		return 0
	}
	return h.mobod.OneU(h.physics.State(), index)
}

// SetVelocity writes the live advanced state. The cache is not touched.
func (h *Hinge) SetVelocity(index int, rate float64) {
	if !h.inRange(index) {
		h.rangeError("set_velocity", index)
		return
	}
	if !h.hasHandle() || h.physics == nil || !h.physics.Initialized() {
		h.logger.Debug("velocity write before solver initialized, ignored")
		return
	}
	h.mobod.SetOneU(h.physics.AdvancedState(), index, rate)
}

// Angle returns the live generalized coordinate of mobility index in
// radians.
func (h *Hinge) Angle(index int) float64 {
	if !h.inRange(index) {
		h.rangeError("angle", index)
		return math.NaN()
	}
	if !h.ready() {
		h.logger.Debug("angle read before solver initialized, returning zero")
		return 0
	}
	return h.mobod.OneQ(h.physics.State(), index)
}

// LocalAxis returns the configured axis in the joint's axis frame.
func (h *Hinge) LocalAxis(index int) r3.Vector {
	if !h.inRange(index) {
		h.rangeError("local_axis", index)
		return solver.NaNVector()
	}
	return h.localAxis
}

// AxisFrame returns the rotation from the axis frame to the world.
func (h *Hinge) AxisFrame(index int) quat.Number {
	return h.axisFrame
}

// GlobalAxis returns the joint axis in the world frame. Before the solver
// has stepped it is computed from the local axis and the axis frame.
func (h *Hinge) GlobalAxis(index int) r3.Vector {
	if h.physics != nil && h.physics.Stepped() && h.hasHandle() && h.inRange(index) {
		return h.mobod.AxisInGround(h.physics.State())
	}
	if !h.inRange(index) {
		h.rangeError("global_axis", index)
		return solver.NaNVector()
	}
	h.logger.Debug("global axis read before solver stepped, using local axis and axis frame")
	return solver.Rotate(h.AxisFrame(index), h.LocalAxis(index))
}

// SetForce applies a torque about the axis. It is ignored until the joint is
// attached.
func (h *Hinge) SetForce(index int, torque float64) {
	if !h.inRange(index) || !h.ready() {
		return
	}
	h.applied[index] = torque
	h.mobod.SetOneForce(h.physics.AdvancedState(), index, torque)
}

// Force returns the last torque applied with SetForce.
func (h *Hinge) Force(index int) float64 {
	if !h.inRange(index) {
		return 0
	}
	return h.applied[index]
}

// ClearForces forgets applied torques; the solver drops its copy on rebuild.
func (h *Hinge) ClearForces() {
	for i := range h.applied {
		h.applied[i] = 0
	}
}

// SetAxis is not supported: the solver fixes hinge axes when the system is
// built.
func (h *Hinge) SetAxis(index int, axis r3.Vector) {
	h.logger.Debug("SetAxis not supported, axes are fixed when the solver is built")
}

func (h *Hinge) SetMaxForce(index int, force float64) {
	h.logger.Debug("SetMaxForce not supported by this solver")
}

func (h *Hinge) MaxForce(index int) float64 {
	h.logger.Debug("MaxForce not supported by this solver")
	return 0
}
