// Package dynamo holds the contracts shared by the reference solver and its
// integrators.
//
//   - [Dynamics]: dU/dt for given Q, U and applied forces
//   - [Integrator]: fixed-step update of Q and U in place
//
// Nothing in this package is safe for concurrent use.
package dynamo
