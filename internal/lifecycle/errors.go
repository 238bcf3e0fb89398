package lifecycle

import (
	"errors"
	"fmt"
)

// ErrConfirmationDeclined is returned when the operator declines the
// confirmation gate. Callers treat it as a clean abort, not a failure.
var ErrConfirmationDeclined = errors.New("aborted by user")

// ProbeError reports that a phase's probe stayed inconclusive after all
// attempts. The engine logs it and proceeds with the action; ambiguity
// about current state is never fatal on its own.
type ProbeError struct {
	Phase string
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe for phase %q inconclusive: %v", e.Phase, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// PhaseError reports a failed phase action.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %q failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
