package controllers

import (
	"fmt"
	"sort"

	"github.com/san-kum/jointsim/internal/controller"
)

type Factory func(deps Deps) controller.Plugin

type Registry struct {
	plugins map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{
		plugins: make(map[string]Factory),
	}

	r.plugins["idle"] = func(Deps) controller.Plugin { return NewIdle() }
	r.plugins["joint_pid"] = func(d Deps) controller.Plugin { return NewJointPID(d) }
	r.plugins["joint_lqr"] = func(d Deps) controller.Plugin { return NewJointLQR(d) }
	r.plugins["joint_state_publisher"] = func(d Deps) controller.Plugin { return NewJointStatePublisher(d) }

	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.plugins[name] = f
}

func (r *Registry) New(name string, deps Deps) (controller.Plugin, error) {
	fn, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(deps), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
