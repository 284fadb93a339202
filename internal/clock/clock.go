// Package clock provides the simulation clock and wall-clock pacing for the
// tick loop.
package clock

import (
	"context"
	"fmt"
	"time"

	wall "github.com/benbjohnson/clock"
)

// Sim is the read side of the simulation clock.
type Sim interface {
	// SimTime returns the current simulated time in seconds.
	SimTime() float64
	// StepSize returns the physics step size in seconds.
	StepSize() float64
}

// SimClock counts physics steps. Time is derived from the step count so it
// does not accumulate rounding error.
type SimClock struct {
	step  float64
	steps int64
	base  float64
}

func NewSimClock(step float64) (*SimClock, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step size must be positive, got %f", step)
	}
	return &SimClock{step: step}, nil
}

func (c *SimClock) SimTime() float64 {
	return c.base + float64(c.steps)*c.step
}

func (c *SimClock) StepSize() float64 { return c.step }

func (c *SimClock) Steps() int64 { return c.steps }

// Advance moves the clock forward one step and returns the new time.
func (c *SimClock) Advance() float64 {
	c.steps++
	return c.SimTime()
}

// SetStepSize changes the step size. Elapsed time is folded into the base so
// the clock stays monotonic.
func (c *SimClock) SetStepSize(step float64) error {
	if step <= 0 {
		return fmt.Errorf("step size must be positive, got %f", step)
	}
	c.base = c.SimTime()
	c.steps = 0
	c.step = step
	return nil
}

func (c *SimClock) Reset() {
	c.base = 0
	c.steps = 0
}

// Pacer keeps simulated time from running ahead of wall time scaled by a
// real time factor. A factor of 0 disables pacing.
type Pacer struct {
	clk      wall.Clock
	factor   float64
	start    time.Time
	simStart float64
}

func NewPacer(clk wall.Clock, factor float64) *Pacer {
	if clk == nil {
		clk = wall.New()
	}
	return &Pacer{clk: clk, factor: factor}
}

// Start anchors the pacer at the given simulated time.
func (p *Pacer) Start(simTime float64) {
	p.start = p.clk.Now()
	p.simStart = simTime
}

// Delay returns how long the caller must wait before simTime is due.
func (p *Pacer) Delay(simTime float64) time.Duration {
	if p.factor <= 0 {
		return 0
	}
	due := time.Duration((simTime - p.simStart) / p.factor * float64(time.Second))
	elapsed := p.clk.Since(p.start)
	if elapsed >= due {
		return 0
	}
	return due - elapsed
}

// Wait blocks until simTime is due or ctx is done.
func (p *Pacer) Wait(ctx context.Context, simTime float64) error {
	d := p.Delay(simTime)
	if d == 0 {
		return ctx.Err()
	}
	timer := p.clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
