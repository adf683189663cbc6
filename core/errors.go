package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidGeometry   = errors.New("invalid geometry")
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
	ErrIterationBudget   = errors.New("iteration budget exhausted")
	ErrPropagation       = errors.New("propagation failed")
)

// DegeneracyError reports a sweep that stopped because its geometry stayed
// degenerate for too many consecutive steps.
type DegeneracyError struct {
	At     time.Time
	Reason string
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrNumericDegeneracy, e.At.UTC().Format(time.RFC3339), e.Reason)
}

func (e *DegeneracyError) Unwrap() error { return ErrNumericDegeneracy }
