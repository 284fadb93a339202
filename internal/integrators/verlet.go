package integrators

import "github.com/san-kum/jointsim/internal/dynamo"

// Verlet is velocity Verlet. Joint damping makes the acceleration depend on
// U, so the closing acceleration is taken at the predicted speed
// U + dt*a0.
type Verlet struct {
	a0, a1 []float64
	u      []float64
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.Dynamics, q, u, f []float64, t, dt float64) {
	n := len(u)
	v.a0 = resize(v.a0, n)
	v.a1 = resize(v.a1, n)
	v.u = resize(v.u, n)

	dyn.Accelerations(v.a0, q, u, f, t)
	for i := range q {
		q[i] += dt*u[i] + 0.5*dt*dt*v.a0[i]
	}

	advance(v.u, u, v.a0, dt)
	dyn.Accelerations(v.a1, q, v.u, f, t+dt)
	for i := range u {
		u[i] += 0.5 * dt * (v.a0[i] + v.a1[i])
	}
}

// Leapfrog is kick-drift-kick: half a step of speed, a full step of
// coordinates at that speed, then the second half kick.
type Leapfrog struct {
	a []float64
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.Dynamics, q, u, f []float64, t, dt float64) {
	l.a = resize(l.a, len(u))
	half := dt / 2

	dyn.Accelerations(l.a, q, u, f, t)
	advance(u, u, l.a, half)
	advance(q, q, u, dt)

	dyn.Accelerations(l.a, q, u, f, t+dt)
	advance(u, u, l.a, half)
}
