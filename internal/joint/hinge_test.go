package joint

import (
	"math"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/jointsim/internal/integrators"
	"github.com/san-kum/jointsim/internal/logging"
	"github.com/san-kum/jointsim/internal/solver"
)

// resizingMobilizer reports a different coordinate count on every call.
type resizingMobilizer struct {
	solver.Mobilizer
	calls int
}

func (m *resizingMobilizer) IsEmptyHandle() bool { return false }

func (m *resizingMobilizer) NumQ(s *solver.State) int {
	m.calls++
	return 2 + m.calls
}

func (m *resizingMobilizer) NumU(s *solver.State) int {
	m.calls++
	return 1 + m.calls
}

func (m *resizingMobilizer) OneQ(s *solver.State, i int) float64 { return float64(i) }
func (m *resizingMobilizer) OneU(s *solver.State, i int) float64 { return -float64(i) }

var _ = Describe("Hinge", func() {
	var (
		sys    *solver.System
		mobod  solver.Mobilizer
		hinge  *Hinge
		logs   *observer.ObservedLogs
		axis   r3.Vector
		before int
	)

	BeforeEach(func() {
		var err error
		axis = r3.Vector{X: 1}
		sys = solver.New(solver.Config{Gravity: solver.DefaultGravity}, integrators.NewRK4())
		mobod, err = sys.AddHinge(solver.HingeSpec{Name: "elbow", Mass: 1, Length: 0.5, Axis: axis})
		Expect(err).NotTo(HaveOccurred())

		logger, observed := logging.NewObserved()
		logs = observed
		hinge = NewHinge("elbow", axis, sys, WithLogger(logger))
		before = 0
	})

	errorCount := func() int {
		return logs.FilterLevelExact(zapcore.ErrorLevel).Len()
	}

	Context("before the solver is initialized", func() {
		BeforeEach(func() {
			hinge.Attach(mobod)
		})

		It("should report zero velocity and angle", func() {
			Expect(hinge.Velocity(0)).To(Equal(0.0))
			Expect(hinge.Angle(0)).To(Equal(0.0))
			Expect(logs.FilterLevelExact(zapcore.DebugLevel).Len()).To(Equal(2))
			Expect(errorCount()).To(BeZero())
		})

		It("should derive the global axis from the local axis", func() {
			Expect(hinge.GlobalAxis(0)).To(Equal(axis))
		})

		It("should rotate the local axis by the axis frame", func() {
			quarterTurnZ := quat.Number{Real: math.Sqrt2 / 2, Kmag: math.Sqrt2 / 2}
			h := NewHinge("rotated", r3.Vector{X: 1}, sys, WithAxisFrame(quarterTurnZ))
			h.Attach(mobod)

			got := h.GlobalAxis(0)
			Expect(got.X).To(BeNumerically("~", 0, 1e-12))
			Expect(got.Y).To(BeNumerically("~", 1, 1e-12))
		})

		It("should normalize a scaled axis frame", func() {
			scaled := quat.Number{Real: 3 * math.Sqrt2 / 2, Kmag: 3 * math.Sqrt2 / 2}
			h := NewHinge("scaled", r3.Vector{X: 1}, sys, WithAxisFrame(scaled))
			h.Attach(mobod)

			got := h.GlobalAxis(0)
			Expect(got.Norm()).To(BeNumerically("~", 1, 1e-12))
			Expect(got.Y).To(BeNumerically("~", 1, 1e-12))
		})

		It("should treat a zero axis frame as the identity", func() {
			h := NewHinge("zero", r3.Vector{X: 1}, sys, WithAxisFrame(quat.Number{}))
			h.Attach(mobod)
			Expect(h.GlobalAxis(0)).To(Equal(r3.Vector{X: 1}))
		})

		It("should ignore forces", func() {
			hinge.SetForce(0, 3)
			Expect(hinge.Force(0)).To(Equal(0.0))
		})
	})

	Context("with an out of range index", func() {
		BeforeEach(func() {
			hinge.Attach(mobod)
			sys.Init()
			mobod.SetOneU(sys.AdvancedState(), 0, 0.25)
			before = errorCount()
		})

		It("should return NaN for velocity without touching state", func() {
			Expect(math.IsNaN(hinge.Velocity(1))).To(BeTrue())
			Expect(math.IsNaN(hinge.Velocity(-1))).To(BeTrue())
			Expect(sys.State().U).To(Equal([]float64{0.25}))
			cached := hinge.Cache()
			Expect(cached.Empty()).To(BeTrue())
			Expect(errorCount()).To(Equal(before + 2))
		})

		It("should return NaN for angle", func() {
			Expect(math.IsNaN(hinge.Angle(HingeAngleCount))).To(BeTrue())
		})

		It("should return a NaN axis", func() {
			v := hinge.GlobalAxis(2)
			Expect(math.IsNaN(v.X) && math.IsNaN(v.Y) && math.IsNaN(v.Z)).To(BeTrue())
		})

		It("should log and ignore velocity writes", func() {
			hinge.SetVelocity(5, 9)
			Expect(sys.State().U).To(Equal([]float64{0.25}))
			Expect(errorCount()).To(Equal(before + 1))
		})

		It("should report NaN even before the solver is ready", func() {
			fresh := NewHinge("loose", axis, sys)
			Expect(math.IsNaN(fresh.Velocity(1))).To(BeTrue())
		})
	})

	Context("once the solver is initialized", func() {
		BeforeEach(func() {
			hinge.Attach(mobod)
			sys.Init()
		})

		It("should read live values", func() {
			mobod.SetOneQ(sys.AdvancedState(), 0, 0.4)
			mobod.SetOneU(sys.AdvancedState(), 0, -1.2)

			Expect(hinge.Angle(0)).To(Equal(0.4))
			Expect(hinge.Velocity(0)).To(Equal(-1.2))
		})

		It("should write velocity into the live state but not the cache", func() {
			hinge.SetVelocity(0, 2.5)
			Expect(mobod.OneU(sys.State(), 0)).To(Equal(2.5))
			cached := hinge.Cache()
			Expect(cached.Empty()).To(BeTrue())
		})

		It("should apply forces", func() {
			hinge.SetForce(0, 1.5)
			Expect(hinge.Force(0)).To(Equal(1.5))
			Expect(sys.State().F).To(Equal([]float64{1.5}))
		})

		It("should read the axis from the solver after a step", func() {
			Expect(sys.Step(0.001)).To(Succeed())
			Expect(hinge.GlobalAxis(0).Sub(axis).Norm()).To(BeNumerically("<", 1e-12))
		})

		It("should treat axis and max force setters as no-ops", func() {
			hinge.SetAxis(0, r3.Vector{Y: 1})
			hinge.SetMaxForce(0, 10)
			Expect(hinge.MaxForce(0)).To(Equal(0.0))
			Expect(hinge.LocalAxis(0)).To(Equal(axis))
			Expect(errorCount()).To(BeZero())
		})
	})

	Context("state cache", func() {
		BeforeEach(func() {
			hinge.Attach(mobod)
			sys.Init()
			mobod.SetOneQ(sys.AdvancedState(), 0, 0.7)
			mobod.SetOneU(sys.AdvancedState(), 0, -0.3)
		})

		It("should survive a solver rebuild", func() {
			hinge.SaveState(sys.State())

			fresh := sys.Rebuild()
			Expect(mobod.OneQ(fresh, 0)).To(Equal(0.0))

			hinge.RestoreState(fresh)
			Expect(hinge.Angle(0)).To(Equal(0.7))
			Expect(hinge.Velocity(0)).To(Equal(-0.3))
		})

		It("should size the cache from the solver counts", func() {
			hinge.SaveState(sys.State())
			c := hinge.Cache()
			Expect(c.Positions).To(HaveLen(1))
			Expect(c.Velocities).To(HaveLen(1))
		})

		It("should write nothing when restoring an empty cache", func() {
			fresh := sys.Rebuild()
			mobod.SetOneQ(fresh, 0, 0.9)
			hinge.RestoreState(fresh)
			Expect(mobod.OneQ(fresh, 0)).To(Equal(0.9))
		})

		It("should skip joints without a mobilizer", func() {
			loose := NewHinge("loose", axis, sys)
			loose.SaveState(sys.State())
			cached := loose.Cache()
			Expect(cached.Empty()).To(BeTrue())

			loose.SetCache(MobilityState{Positions: []float64{1}, Velocities: []float64{1}})
			loose.RestoreState(sys.State())
			Expect(mobod.OneQ(sys.State(), 0)).To(Equal(0.7))
		})

		It("should keep the cache across detach", func() {
			hinge.SaveState(sys.State())
			hinge.Detach()
			Expect(hinge.Attached()).To(BeFalse())
			Expect(hinge.Cache().Positions).To(Equal([]float64{0.7}))
			Expect(hinge.Velocity(0)).To(Equal(0.0))
		})
	})

	Context("cache sizing", func() {
		It("should never resize after the first save", func() {
			m := &resizingMobilizer{}
			h := NewHinge("wrist", axis, sys)
			h.Attach(m)

			h.SaveState(&solver.State{})
			first := h.Cache()
			Expect(first.Positions).To(HaveLen(3))
			Expect(first.Velocities).To(HaveLen(3))

			h.SaveState(&solver.State{})
			second := h.Cache()
			Expect(second.Positions).To(HaveLen(3))
			Expect(second.Velocities).To(HaveLen(3))
			Expect(second.Positions).To(Equal([]float64{0, 1, 2}))
			Expect(second.Velocities).To(Equal([]float64{0, -1, -2}))
		})
	})
})

var _ = Describe("MobilityState", func() {
	It("should round trip through a zeroed state", func() {
		sys := solver.New(solver.Config{}, integrators.NewEuler())
		handles := make([]solver.Mobilizer, 3)
		for i := range handles {
			m, err := sys.AddHinge(solver.HingeSpec{Name: "j", Mass: 1, Length: 1})
			Expect(err).NotTo(HaveOccurred())
			handles[i] = m
		}
		sys.Init()

		caches := make([]MobilityState, len(handles))
		for i, m := range handles {
			m.SetOneQ(sys.AdvancedState(), 0, float64(i)+0.5)
			m.SetOneU(sys.AdvancedState(), 0, -float64(i)-0.25)
			caches[i].save(m, sys.State())
		}

		fresh := sys.State().NewState()
		for i, m := range handles {
			caches[i].restore(m, fresh)
		}
		Expect(fresh.Q).To(Equal(sys.State().Q))
		Expect(fresh.U).To(Equal(sys.State().U))
	})

	It("should clone independently", func() {
		c := MobilityState{Positions: []float64{1}, Velocities: []float64{2}}
		d := c.Clone()
		d.Positions[0] = 5
		Expect(c.Positions[0]).To(Equal(1.0))
	})
})
