package controllers

import "github.com/san-kum/jointsim/internal/controller"

type LQR struct {
	K      [][]float64
	Target []float64
}

func NewLQR(k [][]float64, target []float64) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x []float64) []float64 {
	u := make([]float64, len(l.K))

	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			u[i] -= l.K[i][j] * (x[j] - target)
		}
	}

	return u
}

// NewPendulumLQR returns the gains for a unit pendulum held upright about
// its rest angle.
func NewPendulumLQR() *LQR {
	k := [][]float64{
		{31.62, 10.0},
	}
	return NewLQR(k, []float64{0, 0})
}

type LQRParams struct {
	Joint     string  `mapstructure:"joint"`
	KAngle    float64 `mapstructure:"k_angle"`
	KVelocity float64 `mapstructure:"k_velocity"`
	Target    float64 `mapstructure:"target"`
	MaxTorque float64 `mapstructure:"max_torque"`
}

// JointLQR regulates [angle, velocity] of one hinge with fixed gains.
type JointLQR struct {
	deps   Deps
	params LQRParams
	lqr    *LQR
	joint  Joint
}

func NewJointLQR(deps Deps) *JointLQR {
	def := NewPendulumLQR()
	return &JointLQR{
		deps:   deps,
		params: LQRParams{KAngle: def.K[0][0], KVelocity: def.K[0][1]},
	}
}

func (j *JointLQR) Load(c *controller.Controller, params map[string]any) error {
	if err := decodeParams(params, &j.params); err != nil {
		return err
	}
	joint, err := resolveJoint(j.deps.Joints, j.params.Joint)
	if err != nil {
		return err
	}
	j.joint = joint
	j.params.Joint = joint.Name()
	j.lqr = NewLQR([][]float64{{j.params.KAngle, j.params.KVelocity}}, []float64{j.params.Target, 0})
	return nil
}

func (j *JointLQR) Init() error { return nil }

func (j *JointLQR) Update(now float64) error {
	u := j.lqr.Compute([]float64{j.joint.Angle(0), j.joint.Velocity(0)})
	j.joint.SetForce(0, clamp(u[0], j.params.MaxTorque))
	return nil
}

func (j *JointLQR) Reset() error {
	j.joint.SetForce(0, 0)
	return nil
}

func (j *JointLQR) Fini() error { return nil }

func (j *JointLQR) Params() map[string]any {
	return encodeParams(j.params)
}
