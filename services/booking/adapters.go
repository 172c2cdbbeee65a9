package booking

import (
	"context"

	"clinicbook/services/scheduling"
)

// reservationAdapter bridges the concrete scheduling client to the slice of
// it the saga consumes.
type reservationAdapter struct {
	*scheduling.Client
}

// NewReservationClient wraps the scheduling client as a ReservationClient.
func NewReservationClient(c *scheduling.Client) ReservationClient {
	return reservationAdapter{Client: c}
}

func (a reservationAdapter) Hold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	res, err := a.Client.Hold(ctx, scheduling.HoldRequest{
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		Time:           req.Time,
		DurationMin:    req.DurationMin,
		PatientID:      req.PatientID,
	})
	if err != nil {
		return nil, err
	}
	return &HoldResult{HoldID: res.HoldID, ExpiresAt: res.ExpiresAt}, nil
}
