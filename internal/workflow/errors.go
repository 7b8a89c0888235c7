package workflow

import "errors"

var (
	// ErrEmptyHeadline indicates a run was requested without input text.
	ErrEmptyHeadline = errors.New("headline must not be empty")
	// ErrUnknownStep indicates a blueprint names a step id with no implementation.
	ErrUnknownStep = errors.New("blueprint step has no implementation")
	// ErrKindMismatch indicates a blueprint declares the wrong kind for a step id.
	ErrKindMismatch = errors.New("blueprint step kind does not match implementation")
)
