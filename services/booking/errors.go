package booking

import (
	"errors"
	"fmt"

	"clinicbook/models"
)

// ErrSagaBusy is returned when a transition is requested while another one
// still has a remote call in flight. The request is rejected, not queued.
var ErrSagaBusy = errors.New("sagaBusy: another transition is in flight")

// ErrSagaNotCompleted is returned by Restart before the flow reached
// completion; restarting earlier would leak remote side effects.
var ErrSagaNotCompleted = errors.New("sagaNotCompleted: restart is only valid after completion")

// PreconditionError means a required selection is missing. Resolved entirely
// locally; no remote call was attempted.
type PreconditionError struct {
	Field string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("preconditionError: missing %s", e.Field)
}

// SagaError means a remote call failed while entering a step. Stage names the
// leg of the transition that failed ("hold", "identity", "confirm", "charge").
// State is left exactly as it was before the call.
type SagaError struct {
	Stage string
	Err   error
}

func (e *SagaError) Error() string {
	return fmt.Sprintf("sagaError: stage %s: %v", e.Stage, e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

// UnsupportedMethodError means the payment method is missing or unknown.
type UnsupportedMethodError struct {
	Method models.PaymentMethod
}

func (e *UnsupportedMethodError) Error() string {
	if e.Method == "" {
		return "unsupportedMethodError: no payment method selected"
	}
	return fmt.Sprintf("unsupportedMethodError: %s", e.Method)
}

// CompensationError means an undo call failed. The transition it guarded is
// refused, trading a stuck step for a guaranteed-consistent remote state.
type CompensationError struct {
	Op  string
	Err error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensationError: %s: %v", e.Op, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }
