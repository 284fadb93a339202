package controllers

import "github.com/san-kum/jointsim/internal/controller"

// Idle does no work. It counts updates, which makes it handy for checking
// controller rates.
type Idle struct {
	updates int
	last    float64
}

func NewIdle() *Idle {
	return &Idle{}
}

func (i *Idle) Load(c *controller.Controller, params map[string]any) error {
	return decodeParams(params, &struct{}{})
}

func (i *Idle) Init() error { return nil }

func (i *Idle) Update(now float64) error {
	i.updates++
	i.last = now
	return nil
}

func (i *Idle) Reset() error {
	i.updates = 0
	i.last = 0
	return nil
}

func (i *Idle) Fini() error { return nil }

func (i *Idle) Updates() int { return i.updates }

func (i *Idle) LastUpdate() float64 { return i.last }
