package config

import "sort"

func pendulumModel(name string, angle float64) ModelConfig {
	return ModelConfig{
		Name: name,
		Joints: []JointConfig{
			{Name: name + "_hinge", Type: "hinge", Axis: [3]float64{1, 0, 0}, Mass: 1, Length: 1, Damping: 0.05, InitialAngle: angle},
		},
	}
}

func statePublisher(model string, rate float64) ControllerConfig {
	return ControllerConfig{
		Name:       model + "_states",
		Type:       "joint_state_publisher",
		Host:       model,
		UpdateRate: Float(rate),
		Interfaces: []InterfaceConfig{{Type: "joint_state", Name: "joint_states"}},
	}
}

var Presets = map[string]func() *Config{
	"pendulum": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "pendulum"
		cfg.Models = []ModelConfig{pendulumModel("pendulum", 0.5)}
		cfg.Controllers = []ControllerConfig{statePublisher("pendulum", 30)}
		return cfg
	},
	"double": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "double"
		cfg.Models = []ModelConfig{{
			Name: "arm",
			Joints: []JointConfig{
				{Name: "shoulder", Type: "hinge", Axis: [3]float64{1, 0, 0}, Mass: 2, Length: 1, Damping: 0.1, InitialAngle: 1.0},
				{Name: "elbow", Type: "hinge", Axis: [3]float64{0, 1, 0}, Mass: 1, Length: 0.5, Damping: 0.1, InitialAngle: -0.5},
			},
		}}
		cfg.Controllers = []ControllerConfig{statePublisher("arm", 50)}
		return cfg
	},
	"pid_hold": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "pid_hold"
		cfg.Duration = 10
		cfg.Models = []ModelConfig{pendulumModel("pendulum", 1.2)}
		cfg.Controllers = []ControllerConfig{
			{
				Name:       "hold",
				Type:       "joint_pid",
				Host:       "pendulum",
				AlwaysOn:   true,
				UpdateRate: Float(100),
				Params: map[string]any{
					"joint": "pendulum_hinge", "kp": 40.0, "ki": 20.0, "kd": 8.0, "target": 0.3,
				},
			},
			statePublisher("pendulum", 20),
		}
		return cfg
	},
	"restart": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "restart"
		cfg.Models = []ModelConfig{pendulumModel("pendulum", 0.8)}
		cfg.Sensors = []SensorConfig{{Name: "encoder", Model: "pendulum"}}
		cfg.Controllers = []ControllerConfig{
			{
				Name:       "encoder_reader",
				Type:       "joint_state_publisher",
				Host:       "encoder",
				UpdateRate: Float(0),
				Interfaces: []InterfaceConfig{{Type: "position", Name: "encoder"}},
				Params:     map[string]any{"interface": "position"},
			},
		}
		cfg.RestartAt = []float64{1.0, 2.5}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
