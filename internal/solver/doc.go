// Package solver is a minimal multibody backend: a set of independent hinge
// mobilizers swinging under gravity, integrated with a fixed step.
//
// It plays the part of an external dynamics engine. Callers read and write
// generalized coordinates (Q) and velocities (U) through a [Mobilizer]
// handle against a [State]. [System.Rebuild] discards the live state and
// starts from a zeroed one, the way a real engine does after a reset.
package solver
