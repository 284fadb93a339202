// Package world assembles a solver, its hinge joints and their controllers
// from a config and drives them one tick at a time.
package world

import (
	"errors"
	"fmt"
	"sort"

	wall "github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/jointsim/internal/clock"
	"github.com/san-kum/jointsim/internal/config"
	"github.com/san-kum/jointsim/internal/controller"
	"github.com/san-kum/jointsim/internal/controllers"
	"github.com/san-kum/jointsim/internal/dynamo"
	"github.com/san-kum/jointsim/internal/iface"
	"github.com/san-kum/jointsim/internal/integrators"
	"github.com/san-kum/jointsim/internal/joint"
	"github.com/san-kum/jointsim/internal/metrics"
	"github.com/san-kum/jointsim/internal/solver"
)

var (
	ErrFinalized      = errors.New("world: finalized")
	ErrSnapshotLayout = errors.New("world: snapshot does not match joint layout")
)

// JointReading is one joint's live values after a tick.
type JointReading struct {
	Name     string
	Angle    float64
	Velocity float64
	Torque   float64
	Axis     r3.Vector
}

type ControllerReading struct {
	Name       string
	Type       string
	Active     bool
	Rate       float64
	LastUpdate float64
}

// Tick is what observers see after every step.
type Tick struct {
	Time        float64
	Step        int64
	Energy      float64
	Restarts    int
	Joints      []JointReading
	Controllers []ControllerReading
}

type Observer interface {
	OnTick(t Tick)
}

type ObserverFunc func(Tick)

func (f ObserverFunc) OnTick(t Tick) { f(t) }

type Option func(*World)

func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(w *World) {
		w.metrics = m
	}
}

func WithRegistry(r *controllers.Registry) Option {
	return func(w *World) {
		w.registry = r
	}
}

func WithHub(h *iface.Hub) Option {
	return func(w *World) {
		w.hub = h
	}
}

// WithWallClock sets the clock used for real-time pacing and tick timing.
func WithWallClock(c wall.Clock) Option {
	return func(w *World) {
		w.wall = c
	}
}

type World struct {
	cfg    *config.Config
	clock  *clock.SimClock
	system *solver.System

	joints     []*joint.Hinge
	mobods     []solver.Mobilizer
	jointIndex map[string]int
	modelOf    map[string]string

	hub         *iface.Hub
	registry    *controllers.Registry
	controllers []*controller.Controller

	runMetrics []metrics.Metric
	observers  []Observer

	restartAt []float64
	restarts  int
	finalized bool

	wall    wall.Clock
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New builds and initializes a world. Every joint starts at its configured
// initial angle and velocity and every controller is loaded and initialized.
func New(cfg *config.Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		cfg:        cfg,
		jointIndex: make(map[string]int),
		modelOf:    make(map[string]string),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.hub == nil {
		w.hub = iface.NewHub()
	}
	if w.registry == nil {
		w.registry = controllers.NewRegistry()
	}
	if w.wall == nil {
		w.wall = wall.New()
	}

	clk, err := clock.NewSimClock(cfg.Physics.StepSize)
	if err != nil {
		return nil, err
	}
	w.clock = clk

	integ, err := integrators.New(cfg.Physics.Integrator)
	if err != nil {
		return nil, err
	}
	w.system = solver.New(solver.Config{Gravity: cfg.Physics.Gravity}, integ)

	if err := w.buildJoints(); err != nil {
		return nil, err
	}

	w.system.Init()
	for i, h := range w.joints {
		h.Attach(w.mobods[i])
	}
	w.applyInitialConditions()

	if err := w.buildControllers(); err != nil {
		return nil, multierr.Append(err, w.Fini())
	}

	w.runMetrics = metrics.Defaults(config.DefaultAngleLimit)
	w.restartAt = restartSchedule(cfg.RestartAt)

	w.logger.Info("world ready",
		zap.String("world", cfg.Name),
		zap.Int("joints", len(w.joints)),
		zap.Int("controllers", len(w.controllers)),
		zap.String("integrator", cfg.Physics.Integrator))
	return w, nil
}

// restartSchedule returns a sorted copy of times.
func restartSchedule(times []float64) []float64 {
	out := append([]float64(nil), times...)
	sort.Float64s(out)
	return out
}

func (w *World) buildJoints() error {
	for _, m := range w.cfg.Models {
		for _, jc := range m.Joints {
			if _, dup := w.jointIndex[jc.Name]; dup {
				return fmt.Errorf("%w: duplicate joint %s", config.ErrInvalid, jc.Name)
			}
			axis := r3.Vector{X: jc.Axis[0], Y: jc.Axis[1], Z: jc.Axis[2]}
			mobod, err := w.system.AddHinge(solver.HingeSpec{
				Name:    jc.Name,
				Mass:    jc.Mass,
				Length:  jc.Length,
				Damping: jc.Damping,
				Axis:    axis,
			})
			if err != nil {
				return fmt.Errorf("joint %s: %w", jc.Name, err)
			}
			h := joint.NewHinge(jc.Name, axis, w.system,
				joint.WithLogger(w.logger.Named("joint")),
				joint.WithMetrics(w.metrics),
			)
			w.jointIndex[jc.Name] = len(w.joints)
			w.modelOf[jc.Name] = m.Name
			w.joints = append(w.joints, h)
			w.mobods = append(w.mobods, mobod)
		}
	}
	return nil
}

// applyInitialConditions seeds every joint cache from the config and
// restores it into the live state.
func (w *World) applyInitialConditions() {
	i := 0
	for _, m := range w.cfg.Models {
		for _, jc := range m.Joints {
			h := w.joints[i]
			h.SetCache(joint.MobilityState{
				Positions:  []float64{jc.InitialAngle},
				Velocities: []float64{jc.InitialVelocity},
			})
			h.RestoreState(w.system.State())
			h.ClearForces()
			i++
		}
	}
}

func (w *World) resolveHost(name string) controller.Host {
	if m := w.cfg.Model(name); m != nil {
		return controller.Host{Kind: controller.HostModel, Name: name, Models: []string{name}}
	}
	if s := w.cfg.Sensor(name); s != nil {
		return controller.Host{Kind: controller.HostSensor, Name: name, Models: []string{s.Model}}
	}
	return controller.Host{Kind: controller.HostUnknown, Name: name}
}

func (w *World) buildControllers() error {
	for _, cc := range w.cfg.Controllers {
		host := w.resolveHost(cc.Host)
		logger := w.logger.Named("controller")

		plugin, err := w.registry.New(cc.Type, controllers.Deps{
			Joints: w.scope(host),
			Logger: logger.Named(cc.Name),
		})
		if err != nil {
			return fmt.Errorf("controller %s: %w", cc.Name, err)
		}
		c, err := controller.New(host, plugin, w.clock,
			controller.WithLogger(logger),
			controller.WithMetrics(w.metrics),
			controller.WithFactory(w.hub),
		)
		if err != nil {
			return fmt.Errorf("controller %s: %w", cc.Name, err)
		}
		w.controllers = append(w.controllers, c)

		if err := c.Load(cc); err != nil {
			return err
		}
		if err := c.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the clock by one step, steps the solver, then updates every
// controller. A solver failure stops the tick. Controller failures are
// combined and returned after all controllers have run.
func (w *World) Step() error {
	if w.finalized {
		return ErrFinalized
	}
	start := w.wall.Now()
	dt := w.clock.StepSize()

	if err := w.system.Step(dt); err != nil {
		return err
	}
	now := w.clock.Advance()

	var err error
	for _, c := range w.controllers {
		err = multierr.Append(err, c.Update(now, dt))
	}

	due := 0
	for due < len(w.restartAt) && w.restartAt[due] <= now+dt/2 {
		due++
	}
	if due > 0 {
		w.restartAt = w.restartAt[due:]
		w.RestartEngine()
	}

	tick := w.tick()
	sample := metrics.Sample{
		Time:       tick.Time,
		Energy:     tick.Energy,
		Joints:     make([]string, len(tick.Joints)),
		Angles:     make([]float64, len(tick.Joints)),
		Velocities: make([]float64, len(tick.Joints)),
		Forces:     make([]float64, len(tick.Joints)),
	}
	for i, j := range tick.Joints {
		sample.Joints[i] = j.Name
		sample.Angles[i] = j.Angle
		sample.Velocities[i] = j.Velocity
		sample.Forces[i] = j.Torque
	}
	for _, m := range w.runMetrics {
		m.Observe(sample)
	}
	for _, o := range w.observers {
		o.OnTick(tick)
	}

	w.metrics.ObserveTick(w.wall.Since(start), now)
	return err
}

func (w *World) tick() Tick {
	t := Tick{
		Time:     w.clock.SimTime(),
		Step:     w.clock.Steps(),
		Energy:   w.system.Energy(w.system.State()),
		Restarts: w.restarts,
		Joints:   make([]JointReading, len(w.joints)),
	}
	for i, h := range w.joints {
		t.Joints[i] = JointReading{
			Name:     h.Name(),
			Angle:    h.Angle(0),
			Velocity: h.Velocity(0),
			Torque:   h.Force(0),
			Axis:     h.GlobalAxis(0),
		}
	}
	for _, c := range w.controllers {
		t.Controllers = append(t.Controllers, ControllerReading{
			Name:       c.Name(),
			Type:       c.TypeName(),
			Active:     c.IsActive(),
			Rate:       c.UpdateRate(),
			LastUpdate: c.LastUpdate(),
		})
	}
	return t
}

// Current returns the readings observers would see for the present state.
func (w *World) Current() Tick {
	return w.tick()
}

// RestartEngine rebuilds the solver state and carries every joint's Q and
// U across through the joint caches. Applied torques are dropped.
func (w *World) RestartEngine() {
	for _, h := range w.joints {
		h.SaveState(w.system.State())
	}
	fresh := w.system.Rebuild()
	fresh.Time = w.clock.SimTime()
	for _, h := range w.joints {
		h.RestoreState(fresh)
		h.ClearForces()
	}
	w.restarts++
	w.metrics.SolverRestart()
	w.logger.Info("solver restarted", zap.Float64("time", fresh.Time), zap.Int("restarts", w.restarts))
}

// Reset returns the world to its initial conditions at time zero and resets
// every controller.
func (w *World) Reset() error {
	if w.finalized {
		return ErrFinalized
	}
	w.clock.Reset()
	w.system.Rebuild()
	w.applyInitialConditions()
	w.restartAt = restartSchedule(w.cfg.RestartAt)
	w.restarts = 0
	for _, m := range w.runMetrics {
		m.Reset()
	}

	var err error
	for _, c := range w.controllers {
		err = multierr.Append(err, c.Reset())
		err = multierr.Append(err, c.Init())
	}
	return err
}

// Fini finalizes every controller and tears the solver down. Calling it
// again does nothing.
func (w *World) Fini() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	var err error
	for _, c := range w.controllers {
		err = multierr.Append(err, c.Fini())
	}
	for _, h := range w.joints {
		h.Detach()
	}
	w.system.Teardown()
	return err
}

func (w *World) AddObserver(o Observer) {
	w.observers = append(w.observers, o)
}

// Metrics returns the run metrics observed since the last Reset.
// Metrics returns every run metric and its per-joint figures, keyed as
// metrics.JointKey builds them.
func (w *World) Metrics() map[string]float64 {
	out := make(map[string]float64)
	for _, m := range w.runMetrics {
		for k, v := range m.Values() {
			out[k] = v
		}
	}
	return out
}

// LeastStableJoint names the joint that spent the most ticks outside the
// angle limit, with its fraction of ticks inside.
func (w *World) LeastStableJoint() (string, float64) {
	for _, m := range w.runMetrics {
		if s, ok := m.(*metrics.Stability); ok {
			return s.Worst()
		}
	}
	return "", 1
}

func (w *World) Joint(name string) (*joint.Hinge, bool) {
	i, ok := w.jointIndex[name]
	if !ok {
		return nil, false
	}
	return w.joints[i], true
}

func (w *World) JointNames() []string {
	names := make([]string, len(w.joints))
	for i, h := range w.joints {
		names[i] = h.Name()
	}
	return names
}

func (w *World) Controller(name string) (*controller.Controller, bool) {
	for _, c := range w.controllers {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

func (w *World) Controllers() []*controller.Controller {
	return append([]*controller.Controller(nil), w.controllers...)
}

func (w *World) Config() *config.Config { return w.cfg }

func (w *World) Clock() *clock.SimClock { return w.clock }

func (w *World) System() *solver.System { return w.system }

func (w *World) Hub() *iface.Hub { return w.hub }

func (w *World) Restarts() int { return w.restarts }

func (w *World) Time() float64 { return w.clock.SimTime() }

// jointScope exposes the joints of one model to a controller plugin.
type jointScope struct {
	w     *World
	model string
}

func (w *World) scope(host controller.Host) controllers.Joints {
	model := ""
	if len(host.Models) > 0 {
		model = host.Models[len(host.Models)-1]
	}
	return jointScope{w: w, model: model}
}

func (s jointScope) Joint(name string) (controllers.Joint, bool) {
	if s.w.modelOf[name] != s.model {
		return nil, false
	}
	h, ok := s.w.Joint(name)
	if !ok {
		return nil, false
	}
	return h, true
}

func (s jointScope) JointNames() []string {
	var names []string
	for _, h := range s.w.joints {
		if s.w.modelOf[h.Name()] == s.model {
			names = append(names, h.Name())
		}
	}
	return names
}

func isSolverError(err error) bool {
	var se *dynamo.StepError
	return errors.As(err, &se) || errors.Is(err, dynamo.ErrNotInitialized)
}
