package integrators

import "github.com/san-kum/jointsim/internal/dynamo"

// RK4 is the classic fourth order Runge-Kutta method on (Q, U). The stage
// speeds double as the coordinate derivatives since dQ/dt = U.
type RK4 struct {
	q              []float64
	u2, u3, u4     []float64
	a1, a2, a3, a4 []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	r.q = resize(r.q, n)
	r.u2 = resize(r.u2, n)
	r.u3 = resize(r.u3, n)
	r.u4 = resize(r.u4, n)
	r.a1 = resize(r.a1, n)
	r.a2 = resize(r.a2, n)
	r.a3 = resize(r.a3, n)
	r.a4 = resize(r.a4, n)
}

func (r *RK4) Step(dyn dynamo.Dynamics, q, u, f []float64, t, dt float64) {
	r.resize(len(u))
	half := dt / 2

	dyn.Accelerations(r.a1, q, u, f, t)

	advance(r.q, q, u, half)
	advance(r.u2, u, r.a1, half)
	dyn.Accelerations(r.a2, r.q, r.u2, f, t+half)

	advance(r.q, q, r.u2, half)
	advance(r.u3, u, r.a2, half)
	dyn.Accelerations(r.a3, r.q, r.u3, f, t+half)

	advance(r.q, q, r.u3, dt)
	advance(r.u4, u, r.a3, dt)
	dyn.Accelerations(r.a4, r.q, r.u4, f, t+dt)

	dt6 := dt / 6
	for i := range q {
		q[i] += dt6 * (u[i] + 2*r.u2[i] + 2*r.u3[i] + r.u4[i])
	}
	for i := range u {
		u[i] += dt6 * (r.a1[i] + 2*r.a2[i] + 2*r.a3[i] + r.a4[i])
	}
}
