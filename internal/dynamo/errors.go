package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotInitialized indicates the solver has no live state yet.
	ErrNotInitialized = errors.New("dynamo: solver not initialized")

	// ErrAlreadyInitialized indicates topology changes after Init.
	ErrAlreadyInitialized = errors.New("dynamo: solver already initialized")
)

// StepError wraps an error with the step it happened on.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
