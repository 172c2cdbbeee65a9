package models

// Service is a bookable clinic service (consultation, exam, procedure).
type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	DurationMin int     `json:"durationMinutes"`
	Price       float64 `json:"price"`
}

// Slot is the professional/date/time choice for a service.
type Slot struct {
	ProfessionalID   string `json:"professionalId"`
	ProfessionalName string `json:"professionalName,omitempty"`
	Date             string `json:"date"` // YYYY-MM-DD
	Time             string `json:"time"` // HH:MM
	DurationMin      int    `json:"durationMinutes"`
}
