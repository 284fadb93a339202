package metrics

import (
	"math"
)

// EnergyDrift tracks the largest relative deviation from the first observed
// energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	if e.samples == 0 {
		e.initialEnergy = s.Energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(s.Energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Values() map[string]float64 {
	return map[string]float64{e.name: e.Value()}
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
