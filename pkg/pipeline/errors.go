package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and execution.
var (
	ErrUnknownField  = errors.New("state field has no registered channel")
	ErrUnknownKind   = errors.New("unknown step kind")
	ErrDuplicateStep = errors.New("step already registered")
	ErrUndefinedStep = errors.New("edge references undefined step")
	ErrDuplicateEdge = errors.New("step already has an outgoing edge")
	ErrNoEntryPoint  = errors.New("graph has no entry point")
	ErrNoTerminal    = errors.New("step has no path to the terminal marker")
	ErrStepLimit     = errors.New("step ceiling exceeded")
)

// RunError is the single top-level failure for a pipeline run. It carries
// the step that failed and the partially-built state for diagnostics.
type RunError struct {
	StepID string
	State  State
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline run failed at step %q: %v", e.StepID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
