// Package joint adapts simulated hinge joints to the solver.
//
// A [Hinge] reads its angle and velocity from the live solver state once the
// solver is initialized, and returns documented defaults before that. Its
// [MobilityState] cache carries Q and U across solver rebuilds:
//
//	for _, j := range joints {
//		j.SaveState(sys.State())
//	}
//	fresh := sys.Rebuild()
//	for _, j := range joints {
//		j.RestoreState(fresh)
//	}
//
// Out of range mobility indices are logged at error level and answered with
// NaN. Reads before the solver is ready are logged at debug level and
// answered with zero.
package joint
