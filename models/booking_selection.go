package models

import "time"

// BookingSelection holds the in-progress user choices for one booking attempt.
// It is owned exclusively by the saga controller and lives only in memory.
// HoldID and AppointmentID are the two fields whose clearing requires remote
// compensation; everything else is pure local state.
type BookingSelection struct {
	Service      *Service      `json:"service,omitempty"`
	Slot         *Slot         `json:"slot,omitempty"`
	PersonalData *PersonalData `json:"personalData,omitempty"`
	Payment      *PaymentDraft `json:"payment,omitempty"`

	HoldID        string    `json:"holdId,omitempty"`
	HoldExpiresAt time.Time `json:"holdExpiresAt,omitempty"`
	AppointmentID string    `json:"appointmentId,omitempty"`

	Charge *InstantTransferCharge `json:"charge,omitempty"`
}

// Snapshot returns a deep copy safe to hand to rendering code.
func (s BookingSelection) Snapshot() BookingSelection {
	out := s
	if s.Service != nil {
		svc := *s.Service
		out.Service = &svc
	}
	if s.Slot != nil {
		slot := *s.Slot
		out.Slot = &slot
	}
	if s.PersonalData != nil {
		pd := *s.PersonalData
		out.PersonalData = &pd
	}
	if s.Payment != nil {
		p := *s.Payment
		if s.Payment.Card != nil {
			card := *s.Payment.Card
			p.Card = &card
		}
		out.Payment = &p
	}
	if s.Charge != nil {
		ch := *s.Charge
		out.Charge = &ch
	}
	return out
}
