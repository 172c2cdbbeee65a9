package models

// Actor identifies who is driving the booking. An empty PatientID means a
// guest; the controller receives this at construction, never from globals.
type Actor struct {
	PatientID string `json:"patientId,omitempty"`
}

// Authenticated reports whether the actor is a signed-in patient.
func (a Actor) Authenticated() bool {
	return a.PatientID != ""
}

// PersonalData is the guest personal-data draft collected at the identity step.
// ExistingPatientID, when set, links an already-known account instead of
// creating one.
type PersonalData struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	ExistingPatientID string `json:"existingPatientId,omitempty"`
}

// Complete reports whether the draft has every required field.
func (p PersonalData) Complete() bool {
	if p.ExistingPatientID != "" {
		return true
	}
	return p.Name != "" && p.Email != "" && p.Phone != ""
}
