package integrators

import "github.com/san-kum/jointsim/internal/dynamo"

// Euler is the explicit first order method. Coordinates move with the
// speeds from the start of the step.
type Euler struct {
	udot []float64
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.Dynamics, q, u, f []float64, t, dt float64) {
	e.udot = resize(e.udot, len(u))
	dyn.Accelerations(e.udot, q, u, f, t)

	for i := range q {
		q[i] += dt * u[i]
	}
	for i := range u {
		u[i] += dt * e.udot[i]
	}
}

// resize returns buf with length n, reusing its storage when it is large
// enough.
func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

// advance sets dst = x + h*dx.
func advance(dst, x, dx []float64, h float64) {
	for i := range dst {
		dst[i] = x[i] + h*dx[i]
	}
}
