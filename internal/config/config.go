package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStepSize   = 0.001
	DefaultDuration   = 5.0
	DefaultIntegrator = "rk4"
	DefaultGravity    = 9.81
	DefaultUpdateRate = 10.0
	DefaultMass       = 1.0
	DefaultLength     = 1.0
	DefaultAngleLimit = 3.14159
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name        string             `yaml:"name"`
	Duration    float64            `yaml:"duration"`
	Physics     PhysicsConfig      `yaml:"physics"`
	Models      []ModelConfig      `yaml:"models"`
	Sensors     []SensorConfig     `yaml:"sensors,omitempty"`
	Controllers []ControllerConfig `yaml:"controllers,omitempty"`
	// RestartAt lists sim times at which the solver is torn down and rebuilt
	// with joint state carried over.
	RestartAt []float64 `yaml:"restart_at,omitempty"`
}

type PhysicsConfig struct {
	StepSize       float64 `yaml:"step_size"`
	Integrator     string  `yaml:"integrator"`
	Gravity        float64 `yaml:"gravity"`
	RealTimeFactor float64 `yaml:"real_time_factor"`
}

type ModelConfig struct {
	Name   string        `yaml:"name"`
	Joints []JointConfig `yaml:"joints"`
}

type JointConfig struct {
	Name            string     `yaml:"name"`
	Type            string     `yaml:"type"`
	Axis            [3]float64 `yaml:"axis,flow"`
	Mass            float64    `yaml:"mass"`
	Length          float64    `yaml:"length"`
	Damping         float64    `yaml:"damping"`
	InitialAngle    float64    `yaml:"initial_angle"`
	InitialVelocity float64    `yaml:"initial_velocity"`
}

type SensorConfig struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
}

type InterfaceConfig struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

type ControllerConfig struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Host       string            `yaml:"host"`
	AlwaysOn   bool              `yaml:"always_on"`
	UpdateRate *float64          `yaml:"update_rate,omitempty"`
	Interfaces []InterfaceConfig `yaml:"interfaces,omitempty"`
	Params     map[string]any    `yaml:"params,omitempty"`
}

// Rate returns the configured update rate or the default.
func (c ControllerConfig) Rate() float64 {
	if c.UpdateRate == nil {
		return DefaultUpdateRate
	}
	return *c.UpdateRate
}

func Float(v float64) *float64 { return &v }

func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		Duration: DefaultDuration,
		Physics: PhysicsConfig{
			StepSize:   DefaultStepSize,
			Integrator: DefaultIntegrator,
			Gravity:    DefaultGravity,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults() {
	for i := range c.Models {
		for j := range c.Models[i].Joints {
			jc := &c.Models[i].Joints[j]
			if jc.Type == "" {
				jc.Type = "hinge"
			}
			if jc.Mass == 0 {
				jc.Mass = DefaultMass
			}
			if jc.Length == 0 {
				jc.Length = DefaultLength
			}
			if jc.Axis == [3]float64{} {
				jc.Axis = [3]float64{1, 0, 0}
			}
		}
	}
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	if c.Physics.StepSize <= 0 {
		return fmt.Errorf("%w: step_size must be positive, got %f", ErrInvalid, c.Physics.StepSize)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %f", ErrInvalid, c.Duration)
	}
	if c.Physics.RealTimeFactor < 0 {
		return fmt.Errorf("%w: real_time_factor must not be negative", ErrInvalid)
	}

	for _, t := range c.RestartAt {
		if t < 0 || math.IsNaN(t) {
			return fmt.Errorf("%w: restart_at entries must not be negative, got %f", ErrInvalid, t)
		}
	}

	names := map[string]bool{}
	for _, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("%w: model without a name", ErrInvalid)
		}
		if names[m.Name] {
			return fmt.Errorf("%w: duplicate entity name %s", ErrInvalid, m.Name)
		}
		names[m.Name] = true
		for _, j := range m.Joints {
			if j.Type != "hinge" {
				return fmt.Errorf("%w: joint %s: unsupported type %s", ErrInvalid, j.Name, j.Type)
			}
			if j.Mass <= 0 || j.Length <= 0 {
				return fmt.Errorf("%w: joint %s: mass and length must be positive", ErrInvalid, j.Name)
			}
		}
	}

	for _, s := range c.Sensors {
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate entity name %s", ErrInvalid, s.Name)
		}
		names[s.Name] = true
		if c.Model(s.Model) == nil {
			return fmt.Errorf("%w: sensor %s: unknown model %s", ErrInvalid, s.Name, s.Model)
		}
	}

	for _, ctrl := range c.Controllers {
		if ctrl.Type == "" {
			return fmt.Errorf("%w: controller %s has no type", ErrInvalid, ctrl.Name)
		}
		if r := ctrl.Rate(); r < 0 || math.IsNaN(r) {
			return fmt.Errorf("%w: controller %s: update_rate must not be negative", ErrInvalid, ctrl.Name)
		}
	}
	return nil
}

func (c *Config) Model(name string) *ModelConfig {
	for i := range c.Models {
		if c.Models[i].Name == name {
			return &c.Models[i]
		}
	}
	return nil
}

func (c *Config) Sensor(name string) *SensorConfig {
	for i := range c.Sensors {
		if c.Sensors[i].Name == name {
			return &c.Sensors[i]
		}
	}
	return nil
}

// JointNames returns every joint name in declaration order.
func (c *Config) JointNames() []string {
	var names []string
	for _, m := range c.Models {
		for _, j := range m.Joints {
			names = append(names, j.Name)
		}
	}
	return names
}
