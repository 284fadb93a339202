package controllers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/jointsim/internal/controller"
	"github.com/san-kum/jointsim/internal/iface"
)

// JointState is one joint's sample as published on a joint_state interface.
type JointState struct {
	Name     string  `json:"name"`
	Angle    float64 `json:"angle"`
	Velocity float64 `json:"velocity"`
	Effort   float64 `json:"effort"`
}

type PublisherParams struct {
	Joints    []string `mapstructure:"joints"`
	Interface string   `mapstructure:"interface"`
}

// JointStatePublisher publishes the state of the host's joints on its
// first interface of the configured type.
type JointStatePublisher struct {
	deps   Deps
	params PublisherParams
	joints []Joint
	out    publisher
	sent   int
}

func NewJointStatePublisher(deps Deps) *JointStatePublisher {
	return &JointStatePublisher{
		deps:   deps,
		params: PublisherParams{Interface: iface.TypeJointState},
	}
}

func (p *JointStatePublisher) Load(c *controller.Controller, params map[string]any) error {
	if err := decodeParams(params, &p.params); err != nil {
		return err
	}
	if p.deps.Joints == nil {
		return fmt.Errorf("no joints in scope")
	}
	names := p.params.Joints
	if len(names) == 0 {
		names = p.deps.Joints.JointNames()
	}
	p.joints = p.joints[:0]
	for _, name := range names {
		j, ok := p.deps.Joints.Joint(name)
		if !ok {
			return fmt.Errorf("unknown joint: %s", name)
		}
		p.joints = append(p.joints, j)
	}

	out, err := c.Iface(p.params.Interface, true, 0)
	if err != nil {
		return err
	}
	pub, ok := out.(publisher)
	if !ok {
		return fmt.Errorf("interface %s cannot publish", out.ID())
	}
	p.out = pub
	return nil
}

func (p *JointStatePublisher) Init() error {
	p.sent = 0
	return nil
}

func (p *JointStatePublisher) Update(now float64) error {
	if p.out == nil {
		return nil
	}
	states := make([]JointState, 0, len(p.joints))
	for _, j := range p.joints {
		states = append(states, JointState{
			Name:     j.Name(),
			Angle:    j.Angle(0),
			Velocity: j.Velocity(0),
			Effort:   j.Force(0),
		})
	}
	delivered := p.out.Publish(iface.Message{Time: now, Payload: states})
	p.sent++
	if p.deps.Logger != nil {
		p.deps.Logger.Debug("published joint states", zap.Float64("time", now), zap.Int("subscribers", delivered))
	}
	return nil
}

func (p *JointStatePublisher) Reset() error {
	p.sent = 0
	return nil
}

func (p *JointStatePublisher) Fini() error {
	p.out = nil
	return nil
}

// Sent is the number of samples published since Init.
func (p *JointStatePublisher) Sent() int { return p.sent }

func (p *JointStatePublisher) Params() map[string]any {
	return encodeParams(p.params)
}
