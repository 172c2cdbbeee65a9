package models

import "time"

// HoldStatus is the remote lifecycle state of a slot hold.
type HoldStatus string

const (
	HoldHeld      HoldStatus = "held"
	HoldConfirmed HoldStatus = "confirmed"
	HoldCancelled HoldStatus = "cancelled"
	HoldExpired   HoldStatus = "expired"
)

// Hold is a temporary, time-limited claim on a professional's slot. It is
// owned by the scheduling service; locally only the id and expiry are cached.
type Hold struct {
	ID             string     `json:"holdId"`
	ProfessionalID string     `json:"professionalId"`
	ServiceID      string     `json:"serviceId"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	DurationMin    int        `json:"durationMinutes"`
	PatientID      string     `json:"patientId,omitempty"` // empty for guests
	Status         HoldStatus `json:"status"`
	ExpiresAt      time.Time  `json:"expiresAt"`
}
