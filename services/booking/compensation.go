package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinicbook/models"
)

// UndoOp is one compensating call. Run performs the remote undo and, only on
// success, clears the selection fields the side effect owned.
type UndoOp struct {
	Name string
	Run  func(ctx context.Context, res ReservationClient, sel *models.BookingSelection) error
}

// CompensationEngine is a pure decision table: given the edge being taken and
// the fields currently populated in the selection, it returns the ordered undo
// calls that must settle before the step pointer may move. Keeping this in one
// table (instead of conditionals scattered across the controller) is what
// keeps the skip rules and the at-most-one-hold invariant auditable.
type CompensationEngine struct{}

// Plan returns the undo calls required before moving from one step to another.
func (CompensationEngine) Plan(from, to models.Step, sel models.BookingSelection) []UndoOp {
	switch {
	// Acquiring a new hold while an old one is active would violate the
	// at-most-one-hold invariant; the stale hold goes first.
	case from == models.StepSlotSelection && to == models.StepOverview:
		if sel.HoldID != "" {
			return []UndoOp{cancelHold()}
		}

	// Leaving the overview backward abandons the hold.
	case from == models.StepOverview && to == models.StepSlotSelection:
		if sel.HoldID != "" {
			return []UndoOp{cancelHold()}
		}

	// A hold can survive a retreat from payment back to slot selection;
	// stepping further back abandons it.
	case from == models.StepSlotSelection && to == models.StepServiceInfo:
		if sel.HoldID != "" {
			return []UndoOp{cancelHold()}
		}

	// Leaving payment backward unwinds the appointment and reverts the hold
	// to held, so the slot stays claimed while the user reconsiders. The
	// forward edge out of payment settles the charge and must not release.
	case from == models.StepPayment &&
		(to == models.StepSlotSelection || to == models.StepIdentityCollection):
		if sel.AppointmentID != "" {
			return []UndoOp{releaseAppointment()}
		}
	}
	return nil
}

// PlanServiceChange returns the undo calls required before accepting a new
// service selection. Changing service is a compensating event in its own
// right: everything acquired for the previous service goes first. Past the
// confirm, that means releasing the appointment before cancelling its hold;
// cancelling alone would strand a live appointment on a cancelled hold.
func (CompensationEngine) PlanServiceChange(sel models.BookingSelection) []UndoOp {
	if sel.AppointmentID != "" {
		return []UndoOp{releaseAppointment(), cancelHold()}
	}
	if sel.HoldID != "" {
		return []UndoOp{cancelHold()}
	}
	return nil
}

func cancelHold() UndoOp {
	return UndoOp{
		Name: "cancel-hold",
		Run: func(ctx context.Context, res ReservationClient, sel *models.BookingSelection) error {
			if err := res.Cancel(ctx, sel.HoldID); err != nil {
				return err
			}
			sel.HoldID = ""
			sel.HoldExpiresAt = time.Time{}
			return nil
		},
	}
}

// releaseAppointment deletes the appointment and reverts its hold to held.
// The two calls run concurrently but are both awaited and result-checked; the
// remote side is idempotent on redundant reverts, so a partial failure can be
// retried safely.
func releaseAppointment() UndoOp {
	return UndoOp{
		Name: "release-appointment",
		Run: func(ctx context.Context, res ReservationClient, sel *models.BookingSelection) error {
			var wg sync.WaitGroup
			var delErr, revertErr error

			wg.Add(2)
			go func() {
				defer wg.Done()
				delErr = res.DeleteAppointment(ctx, sel.AppointmentID)
			}()
			go func() {
				defer wg.Done()
				revertErr = res.SetStatus(ctx, sel.HoldID, models.HoldHeld)
			}()
			wg.Wait()

			if err := errors.Join(delErr, revertErr); err != nil {
				return err
			}
			sel.AppointmentID = ""
			sel.Charge = nil
			return nil
		},
	}
}
