package dynamo

import "math"

// Dynamics gives the generalized accelerations of a mechanical system with
// one coordinate and one speed per mobility, so that dQ/dt = U.
type Dynamics interface {
	// Accelerations writes dU/dt into udot. f holds the applied generalized
	// force of each mobility.
	Accelerations(udot, q, u, f []float64, t float64)
}

// Integrator advances Q and U in place by one fixed step. Integrators keep
// scratch buffers between steps and must not be shared between systems.
type Integrator interface {
	Step(dyn Dynamics, q, u, f []float64, t, dt float64)
}

// Finite reports whether no value is NaN or infinite.
func Finite(seqs ...[]float64) bool {
	for _, s := range seqs {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
