package models

// AppointmentPaymentStatus is the billing state of a confirmed appointment.
type AppointmentPaymentStatus string

const (
	AppointmentUnbilled        AppointmentPaymentStatus = "unbilled"
	AppointmentAwaitingPayment AppointmentPaymentStatus = "awaiting_payment"
	AppointmentPaid            AppointmentPaymentStatus = "paid"
)

// Appointment is the billable booking record created by confirming a Hold.
type Appointment struct {
	ID            string                   `json:"appointmentId"`
	HoldID        string                   `json:"holdId"`
	PaymentStatus AppointmentPaymentStatus `json:"paymentStatus"`
}
