package booking

import (
	"context"
	"time"

	"clinicbook/models"
)

// ReservationClient is the slice of the scheduling service the saga consumes.
type ReservationClient interface {
	Hold(ctx context.Context, req HoldRequest) (*HoldResult, error)
	Cancel(ctx context.Context, holdID string) error
	Confirm(ctx context.Context, holdID string) (string, error)
	SetStatus(ctx context.Context, holdID string, status models.HoldStatus) error
	DeleteAppointment(ctx context.Context, appointmentID string) error
}

// HoldRequest describes the slot claim to acquire.
type HoldRequest struct {
	ProfessionalID string
	ServiceID      string
	Date           string
	Time           string
	DurationMin    int
	PatientID      string // empty for guests
}

// HoldResult is the acquired claim.
type HoldResult struct {
	HoldID    string
	ExpiresAt time.Time
}

// IdentityClient is the slice of the identity service the saga consumes.
type IdentityClient interface {
	CreateAndLink(ctx context.Context, holdID string, data models.PersonalData) (accountCreated bool, err error)
	LinkAndCreateAppointment(ctx context.Context, holdID, patientID string) (appointmentID string, err error)
}

// PaymentClient is the slice of the payment services the saga consumes.
type PaymentClient interface {
	CreateInstantTransferCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, dueDate time.Time, description string) (*models.InstantTransferCharge, error)
	CreateCardCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, card models.CardDetails, amount float64) error
}
