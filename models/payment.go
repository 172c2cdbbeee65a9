package models

import "time"

// PaymentMethod selects how the appointment is settled.
type PaymentMethod string

const (
	PaymentInstantTransfer PaymentMethod = "instant_transfer"
	PaymentCard            PaymentMethod = "card"
)

// PayerInfo identifies who pays the charge.
type PayerInfo struct {
	Name           string `json:"name"`
	DocumentNumber string `json:"documentNumber"`
	Email          string `json:"email,omitempty"`
}

// CardDetails is the card draft collected at the payment step. The number and
// CVC never leave the process except toward the card processor.
type CardDetails struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	ExpMonth   int64  `json:"expMonth"`
	ExpYear    int64  `json:"expYear"`
	CVC        string `json:"cvc"`
}

// Complete reports whether every card field is present.
func (c CardDetails) Complete() bool {
	return c.Number != "" && c.HolderName != "" && c.ExpMonth != 0 && c.ExpYear != 0 && c.CVC != ""
}

// PaymentDraft is the payment-method choice plus its method-specific fields.
type PaymentDraft struct {
	Method PaymentMethod `json:"method"`
	Payer  PayerInfo     `json:"payer"`
	Card   *CardDetails  `json:"card,omitempty"`
}

// InstantTransferCharge is the payload returned when an instant-transfer
// charge is created. The charge settles later over an external channel; this
// payload only carries what the patient needs to pay.
type InstantTransferCharge struct {
	Code       string    `json:"code"`
	VisualCode string    `json:"visualCode"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Amount     float64   `json:"amount"`
}
