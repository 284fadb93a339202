package controller

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jointsim/internal/clock"
	"github.com/san-kum/jointsim/internal/config"
	"github.com/san-kum/jointsim/internal/iface"
	"github.com/san-kum/jointsim/internal/metrics"
)

var (
	ErrMissingIface = errors.New("controller: mandatory interface missing")
	ErrNoPlugin     = errors.New("controller: plugin is nil")
	ErrNoClock      = errors.New("controller: clock is nil")
)

// Plugin is the per-type work a controller schedules.
type Plugin interface {
	Load(c *Controller, params map[string]any) error
	Init() error
	Update(now float64) error
	Reset() error
	Fini() error
}

// Factory creates output interfaces.
type Factory interface {
	NewIface(typ, id string) (iface.Iface, error)
}

type FactoryFunc func(typ, id string) (iface.Iface, error)

func (f FactoryFunc) NewIface(typ, id string) (iface.Iface, error) {
	return f(typ, id)
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithFactory(f Factory) Option {
	return func(c *Controller) {
		c.factory = f
	}
}

// Controller wraps a plugin with the rate gate and the output interfaces it
// publishes through.
type Controller struct {
	name     string
	typeName string
	host     Host
	alwaysOn bool
	schedule Schedule
	ifaces   []iface.Iface

	plugin  Plugin
	clock   clock.Sim
	factory Factory

	finalized bool

	logger  *zap.Logger
	metrics *metrics.Collector
}

// New returns a controller with the default rate of 10 Hz attached to host.
// Hosts other than models and sensors are rejected.
func New(host Host, plugin Plugin, clk clock.Sim, opts ...Option) (*Controller, error) {
	if !host.Kind.Valid() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrUnsupportedHost, host.Name, host.Kind)
	}
	if plugin == nil {
		return nil, ErrNoPlugin
	}
	if clk == nil {
		return nil, ErrNoClock
	}

	c := &Controller{
		host:   host,
		plugin: plugin,
		clock:  clk,
		logger: zap.NewNop(),
	}
	_ = c.schedule.SetUpdateRate(config.DefaultUpdateRate)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load applies cfg, creates the configured interfaces and loads the plugin.
// Interface types the factory does not know are logged and skipped.
func (c *Controller) Load(cfg config.ControllerConfig) error {
	c.name = cfg.Name
	c.typeName = cfg.Type
	c.alwaysOn = cfg.AlwaysOn
	c.logger = c.logger.Named(cfg.Name)

	if err := c.schedule.SetUpdateRate(cfg.Rate()); err != nil {
		return fmt.Errorf("controller %s: %w", c.name, err)
	}

	for _, ic := range cfg.Interfaces {
		if c.factory == nil {
			c.logger.Info("no interface factory, interface disabled", zap.String("type", ic.Type), zap.String("name", ic.Name))
			continue
		}
		id := c.host.ScopedName(ic.Name)
		i, err := c.factory.NewIface(ic.Type, id)
		if errors.Is(err, iface.ErrUnknownType) {
			c.logger.Info("no support for interface type, interface disabled", zap.String("type", ic.Type), zap.String("id", id))
			continue
		}
		if err != nil {
			return fmt.Errorf("controller %s: interface %s: %w", c.name, id, err)
		}
		c.ifaces = append(c.ifaces, i)
	}

	if err := c.plugin.Load(c, cfg.Params); err != nil {
		return fmt.Errorf("controller %s: load: %w", c.name, err)
	}
	return nil
}

// Init anchors the schedule at the current sim time and initializes the
// plugin.
func (c *Controller) Init() error {
	c.schedule.Init(c.clock.SimTime())
	c.finalized = false
	if err := c.plugin.Init(); err != nil {
		return fmt.Errorf("controller %s: init: %w", c.name, err)
	}
	return nil
}

// Update runs the plugin if the controller is active and due.
func (c *Controller) Update(now, step float64) error {
	if !c.IsActive() {
		c.metrics.ControllerUpdate(c.name, metrics.OutcomeInactive)
		return nil
	}
	if !c.schedule.Due(now, step) {
		c.metrics.ControllerUpdate(c.name, metrics.OutcomeNotDue)
		return nil
	}

	err := c.plugin.Update(now)
	c.schedule.MarkUpdated(now)
	if err != nil {
		c.metrics.ControllerUpdate(c.name, metrics.OutcomeFailed)
		return fmt.Errorf("controller %s: update: %w", c.name, err)
	}
	c.metrics.ControllerUpdate(c.name, metrics.OutcomeRan)
	return nil
}

// Tick is Update driven by the injected clock.
func (c *Controller) Tick() error {
	return c.Update(c.clock.SimTime(), c.clock.StepSize())
}

// IsActive reports whether the controller is always on or has a listener on
// any of its interfaces.
func (c *Controller) IsActive() bool {
	if c.alwaysOn {
		return true
	}
	for _, i := range c.ifaces {
		if i.OpenCount() > 0 {
			return true
		}
	}
	return false
}

// Fini closes every interface and finalizes the plugin. Calling it again
// does nothing.
func (c *Controller) Fini() error {
	if c.finalized {
		return nil
	}
	c.finalized = true

	var err error
	for _, i := range c.ifaces {
		err = multierr.Append(err, i.Close())
	}
	c.ifaces = nil
	err = multierr.Append(err, c.plugin.Fini())
	if err != nil {
		return fmt.Errorf("controller %s: fini: %w", c.name, err)
	}
	return nil
}

func (c *Controller) Reset() error {
	return c.plugin.Reset()
}

// Iface returns the n-th interface of the given type, counting from zero.
// A missing interface is an error only when mandatory is set.
func (c *Controller) Iface(typ string, mandatory bool, n int) (iface.Iface, error) {
	seen := 0
	for _, i := range c.ifaces {
		if i.Type() != typ {
			continue
		}
		if seen == n {
			return i, nil
		}
		seen++
	}
	if mandatory {
		return nil, fmt.Errorf("%w: %s needs %s #%d", ErrMissingIface, c.name, typ, n)
	}
	return nil, nil
}

// Ifaces returns the attached interfaces.
func (c *Controller) Ifaces() []iface.Iface {
	return append([]iface.Iface(nil), c.ifaces...)
}

// InterfaceNames lists the attached interfaces as "id>>type".
func (c *Controller) InterfaceNames() []string {
	names := make([]string, 0, len(c.ifaces))
	for _, i := range c.ifaces {
		names = append(names, i.ID()+">>"+i.Type())
	}
	return names
}

// Config returns the controller's current settings. Interface names are
// reported unscoped.
func (c *Controller) Config() config.ControllerConfig {
	cfg := config.ControllerConfig{
		Name:       c.name,
		Type:       c.typeName,
		Host:       c.host.Name,
		AlwaysOn:   c.alwaysOn,
		UpdateRate: config.Float(c.schedule.UpdateRate()),
	}
	prefix := c.host.ScopedName("")
	for _, i := range c.ifaces {
		name := strings.TrimPrefix(i.ID(), prefix)
		cfg.Interfaces = append(cfg.Interfaces, config.InterfaceConfig{Type: i.Type(), Name: name})
	}
	if s, ok := c.plugin.(interface{ Params() map[string]any }); ok {
		cfg.Params = s.Params()
	}
	return cfg
}

// Save writes the controller's settings as yaml.
func (c *Controller) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Config()); err != nil {
		return err
	}
	return enc.Close()
}

// SetUpdateRate changes the rate after loading.
func (c *Controller) SetUpdateRate(rate float64) error {
	return c.schedule.SetUpdateRate(rate)
}

func (c *Controller) Name() string { return c.name }

func (c *Controller) TypeName() string { return c.typeName }

func (c *Controller) Host() Host { return c.host }

func (c *Controller) AlwaysOn() bool { return c.alwaysOn }

func (c *Controller) SetAlwaysOn(on bool) { c.alwaysOn = on }

func (c *Controller) UpdateRate() float64 { return c.schedule.UpdateRate() }

func (c *Controller) UpdatePeriod() float64 { return c.schedule.UpdatePeriod() }

func (c *Controller) LastUpdate() float64 { return c.schedule.LastUpdate() }

func (c *Controller) Logger() *zap.Logger { return c.logger }
