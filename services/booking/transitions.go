package booking

import (
	"context"
	"fmt"
	"time"

	"clinicbook/models"
)

// forwardEdge is one named forward transition. Edges are keyed by step
// identity, never by index arithmetic; SkipDone lists steps marked Done
// without ever becoming Active (the skip rules).
type forwardEdge struct {
	Name     string
	From, To models.Step
	SkipDone []models.Step
	When     func(actor models.Actor, sel models.BookingSelection) bool
	Guard    func(sel models.BookingSelection) error
	Effect   effectFunc
}

// effectFunc performs the remote leg(s) of a transition against a selection
// snapshot and returns the mutation to commit on success.
type effectFunc func(ctx context.Context, d Deps, actor models.Actor, sel models.BookingSelection) (apply func(*models.BookingSelection), err error)

// backwardEdge is one named backward transition. Its compensations come from
// the CompensationEngine table, keyed by the same (From, To) pair. Reset
// lists additional steps set back to NotStarted (the skip-rule mirrors).
type backwardEdge struct {
	Name     string
	From, To models.Step
	Reset    []models.Step
	When     func(actor models.Actor, sel models.BookingSelection) bool
}

func anyActor(models.Actor, models.BookingSelection) bool { return true }

func authenticatedOnly(a models.Actor, _ models.BookingSelection) bool { return a.Authenticated() }

func guestOnly(a models.Actor, _ models.BookingSelection) bool { return !a.Authenticated() }

var forwardEdges = []forwardEdge{
	{
		Name: "choose-service",
		From: models.StepServiceSelection,
		To:   models.StepServiceInfo,
		When: anyActor,
		Guard: func(sel models.BookingSelection) error {
			if sel.Service == nil {
				return &PreconditionError{Field: "service"}
			}
			return nil
		},
	},
	{
		Name: "review-service",
		From: models.StepServiceInfo,
		To:   models.StepSlotSelection,
		When: anyActor,
	},
	{
		Name: "reserve-slot",
		From: models.StepSlotSelection,
		To:   models.StepOverview,
		When: anyActor,
		Guard: func(sel models.BookingSelection) error {
			if sel.Service == nil {
				return &PreconditionError{Field: "service"}
			}
			if sel.Slot == nil {
				return &PreconditionError{Field: "slot"}
			}
			return nil
		},
		Effect: acquireHold,
	},
	{
		// Authenticated patients need no identity step: confirm straight
		// into a billable appointment and skip to payment.
		Name:     "confirm-known-patient",
		From:     models.StepOverview,
		To:       models.StepPayment,
		SkipDone: []models.Step{models.StepIdentityCollection},
		When:     authenticatedOnly,
		Guard: func(sel models.BookingSelection) error {
			if sel.HoldID == "" {
				return &PreconditionError{Field: "hold"}
			}
			return nil
		},
		Effect: confirmHold,
	},
	{
		Name: "collect-identity",
		From: models.StepOverview,
		To:   models.StepIdentityCollection,
		When: guestOnly,
	},
	{
		Name: "link-patient",
		From: models.StepIdentityCollection,
		To:   models.StepPayment,
		When: anyActor,
		Guard: func(sel models.BookingSelection) error {
			if sel.HoldID == "" {
				return &PreconditionError{Field: "hold"}
			}
			if sel.PersonalData == nil || !sel.PersonalData.Complete() {
				return &PreconditionError{Field: "personalData"}
			}
			return nil
		},
		Effect: linkIdentityAndConfirm,
	},
	{
		Name:   "settle-payment",
		From:   models.StepPayment,
		To:     models.StepCompletion,
		When:   anyActor,
		Guard:  guardPayment,
		Effect: settlePayment,
	},
}

var backwardEdges = []backwardEdge{
	{
		Name: "back-to-service-selection",
		From: models.StepServiceInfo,
		To:   models.StepServiceSelection,
		When: anyActor,
	},
	{
		Name: "back-to-service-info",
		From: models.StepSlotSelection,
		To:   models.StepServiceInfo,
		When: anyActor,
	},
	{
		Name: "abandon-hold",
		From: models.StepOverview,
		To:   models.StepSlotSelection,
		When: anyActor,
	},
	{
		Name: "back-to-overview",
		From: models.StepIdentityCollection,
		To:   models.StepOverview,
		When: anyActor,
	},
	{
		// Mirror of the confirm-known-patient skip: land directly on slot
		// selection with the overview and identity steps reset.
		Name:  "unwind-payment-known-patient",
		From:  models.StepPayment,
		To:    models.StepSlotSelection,
		Reset: []models.Step{models.StepOverview, models.StepIdentityCollection},
		When:  authenticatedOnly,
	},
	{
		Name: "unwind-payment-guest",
		From: models.StepPayment,
		To:   models.StepIdentityCollection,
		When: guestOnly,
	},
}

func findForwardEdge(from models.Step, actor models.Actor, sel models.BookingSelection) (forwardEdge, bool) {
	for _, e := range forwardEdges {
		if e.From == from && e.When(actor, sel) {
			return e, true
		}
	}
	return forwardEdge{}, false
}

func findBackwardEdge(from models.Step, actor models.Actor, sel models.BookingSelection) (backwardEdge, bool) {
	for _, e := range backwardEdges {
		if e.From == from && e.When(actor, sel) {
			return e, true
		}
	}
	return backwardEdge{}, false
}

func guardPayment(sel models.BookingSelection) error {
	if sel.AppointmentID == "" {
		return &PreconditionError{Field: "appointment"}
	}
	if sel.Payment == nil {
		return &UnsupportedMethodError{}
	}
	switch sel.Payment.Method {
	case models.PaymentInstantTransfer:
		if sel.Payment.Payer.DocumentNumber == "" {
			return &PreconditionError{Field: "payerDocument"}
		}
	case models.PaymentCard:
		if sel.Payment.Card == nil || !sel.Payment.Card.Complete() {
			return &PreconditionError{Field: "cardDetails"}
		}
	default:
		return &UnsupportedMethodError{Method: sel.Payment.Method}
	}
	return nil
}

func acquireHold(ctx context.Context, d Deps, actor models.Actor, sel models.BookingSelection) (func(*models.BookingSelection), error) {
	res, err := d.Reservations.Hold(ctx, HoldRequest{
		ProfessionalID: sel.Slot.ProfessionalID,
		ServiceID:      sel.Service.ID,
		Date:           sel.Slot.Date,
		Time:           sel.Slot.Time,
		DurationMin:    sel.Slot.DurationMin,
		PatientID:      actor.PatientID,
	})
	if err != nil {
		return nil, &SagaError{Stage: "hold", Err: err}
	}
	return func(s *models.BookingSelection) {
		s.HoldID = res.HoldID
		s.HoldExpiresAt = res.ExpiresAt
	}, nil
}

func confirmHold(ctx context.Context, d Deps, _ models.Actor, sel models.BookingSelection) (func(*models.BookingSelection), error) {
	appointmentID, err := d.Reservations.Confirm(ctx, sel.HoldID)
	if err != nil {
		return nil, &SagaError{Stage: "confirm", Err: err}
	}
	return func(s *models.BookingSelection) {
		s.AppointmentID = appointmentID
	}, nil
}

func linkIdentityAndConfirm(ctx context.Context, d Deps, _ models.Actor, sel models.BookingSelection) (func(*models.BookingSelection), error) {
	data := *sel.PersonalData

	// A known account links and creates the appointment in one call.
	if data.ExistingPatientID != "" {
		appointmentID, err := d.Identity.LinkAndCreateAppointment(ctx, sel.HoldID, data.ExistingPatientID)
		if err != nil {
			return nil, &SagaError{Stage: "identity", Err: err}
		}
		return func(s *models.BookingSelection) {
			s.AppointmentID = appointmentID
		}, nil
	}

	if _, err := d.Identity.CreateAndLink(ctx, sel.HoldID, data); err != nil {
		return nil, &SagaError{Stage: "identity", Err: err}
	}
	// The identity service needs a moment to propagate the link before the
	// hold can be confirmed under the new account.
	if err := sleepCtx(ctx, d.SettleDelay); err != nil {
		return nil, &SagaError{Stage: "confirm", Err: err}
	}
	appointmentID, err := d.Reservations.Confirm(ctx, sel.HoldID)
	if err != nil {
		return nil, &SagaError{Stage: "confirm", Err: err}
	}
	return func(s *models.BookingSelection) {
		s.AppointmentID = appointmentID
	}, nil
}

func settlePayment(ctx context.Context, d Deps, _ models.Actor, sel models.BookingSelection) (func(*models.BookingSelection), error) {
	payer := sel.Payment.Payer
	description := fmt.Sprintf("Appointment %s", sel.AppointmentID)
	if sel.Service != nil {
		description = fmt.Sprintf("Appointment %s: %s", sel.AppointmentID, sel.Service.Name)
	}

	switch sel.Payment.Method {
	case models.PaymentInstantTransfer:
		charge, err := d.Payments.CreateInstantTransferCharge(ctx, sel.AppointmentID, payer, time.Now().Add(24*time.Hour), description)
		if err != nil {
			return nil, &SagaError{Stage: "charge", Err: err}
		}
		return func(s *models.BookingSelection) {
			s.Charge = charge
		}, nil

	case models.PaymentCard:
		var amount float64
		if sel.Service != nil {
			amount = sel.Service.Price
		}
		if err := d.Payments.CreateCardCharge(ctx, sel.AppointmentID, payer, *sel.Payment.Card, amount); err != nil {
			return nil, &SagaError{Stage: "charge", Err: err}
		}
		return func(*models.BookingSelection) {}, nil
	}

	return nil, &UnsupportedMethodError{Method: sel.Payment.Method}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
