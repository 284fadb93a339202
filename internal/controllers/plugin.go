package controllers

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/san-kum/jointsim/internal/iface"
)

// Joint is the part of a joint a plugin reads and drives.
type Joint interface {
	Name() string
	Angle(index int) float64
	Velocity(index int) float64
	SetForce(index int, torque float64)
	Force(index int) float64
}

// Joints resolves joint names within the controller's host.
type Joints interface {
	Joint(name string) (Joint, bool)
	JointNames() []string
}

// Deps are handed to every plugin when it is built.
type Deps struct {
	Joints Joints
	Logger *zap.Logger
}

type publisher interface {
	Publish(msg iface.Message) int
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return nil
}

func encodeParams(in any) map[string]any {
	out := map[string]any{}
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil
	}
	return out
}

// resolveJoint returns the named joint, or the first joint in scope when
// name is empty.
func resolveJoint(joints Joints, name string) (Joint, error) {
	if joints == nil {
		return nil, fmt.Errorf("no joints in scope")
	}
	if name == "" {
		names := joints.JointNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("no joints in scope")
		}
		name = names[0]
	}
	j, ok := joints.Joint(name)
	if !ok {
		return nil, fmt.Errorf("unknown joint: %s", name)
	}
	return j, nil
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
