package solver

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

var zAxis = r3.Vector{X: 0, Y: 0, Z: 1}

// Identity is the rotation that leaves vectors unchanged.
var Identity = quat.Number{Real: 1}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// AlignZ returns the shortest rotation taking +Z onto axis. A zero axis
// maps to the identity.
func AlignZ(axis r3.Vector) quat.Number {
	if axis.Norm() == 0 {
		return Identity
	}
	a := axis.Normalize()
	c := zAxis.Dot(a)
	switch {
	case c > 1-1e-12:
		return Identity
	case c < -1+1e-12:
		return quat.Number{Imag: 1}
	}
	cross := zAxis.Cross(a)
	q := quat.Number{Real: 1 + c, Imag: cross.X, Jmag: cross.Y, Kmag: cross.Z}
	return quat.Scale(1/quat.Abs(q), q)
}

// NaNVector is returned for axis queries that cannot be answered.
func NaNVector() r3.Vector {
	return r3.Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}
