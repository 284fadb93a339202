package controllers

import (
	"github.com/san-kum/jointsim/internal/controller"
	"github.com/san-kum/jointsim/internal/iface"
)

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Compute returns the torque for the measured angle at time t.
func (p *PID) Compute(angle, t float64) float64 {
	err := p.Target - angle

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return u
	}
	return p.Kp * err
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

type PIDParams struct {
	Joint     string  `mapstructure:"joint"`
	Kp        float64 `mapstructure:"kp"`
	Ki        float64 `mapstructure:"ki"`
	Kd        float64 `mapstructure:"kd"`
	Target    float64 `mapstructure:"target"`
	MaxTorque float64 `mapstructure:"max_torque"`
}

// JointPID holds one hinge at a target angle.
type JointPID struct {
	deps   Deps
	params PIDParams
	pid    *PID
	joint  Joint
	out    publisher
}

func NewJointPID(deps Deps) *JointPID {
	return &JointPID{deps: deps}
}

func (j *JointPID) Load(c *controller.Controller, params map[string]any) error {
	if err := decodeParams(params, &j.params); err != nil {
		return err
	}
	joint, err := resolveJoint(j.deps.Joints, j.params.Joint)
	if err != nil {
		return err
	}
	j.joint = joint
	j.params.Joint = joint.Name()
	j.pid = NewPID(j.params.Kp, j.params.Ki, j.params.Kd, j.params.Target)

	out, err := c.Iface(iface.TypeActuator, false, 0)
	if err != nil {
		return err
	}
	if p, ok := out.(publisher); ok {
		j.out = p
	}
	return nil
}

func (j *JointPID) Init() error {
	j.pid.Reset()
	return nil
}

func (j *JointPID) Update(now float64) error {
	torque := clamp(j.pid.Compute(j.joint.Angle(0), now), j.params.MaxTorque)
	j.joint.SetForce(0, torque)
	if j.out != nil {
		j.out.Publish(iface.Message{Time: now, Payload: torque})
	}
	return nil
}

func (j *JointPID) Reset() error {
	j.pid.Reset()
	j.joint.SetForce(0, 0)
	return nil
}

func (j *JointPID) Fini() error {
	j.out = nil
	return nil
}

func (j *JointPID) Params() map[string]any {
	return encodeParams(j.params)
}
