// Package payment settles appointments: instant-transfer charges go through
// the clinic payment gateway, card charges through Stripe.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clinicbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

const defaultTimeout = 20 * time.Second

// Client creates charges against an appointment. Stateless; one network call
// per method, no retry.
type Client struct {
	gatewayURL string
	gatewayKey string
	httpClient *http.Client
	stripe     *client.API
	currency   string
	logger     *zap.Logger
}

// NewClient creates a payment client. currency is the ISO code used for card
// charges (e.g. "brl").
func NewClient(gatewayURL, gatewayKey, stripeKey, currency string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := &client.API{}
	sc.Init(stripeKey, nil)
	return &Client{
		gatewayURL: gatewayURL,
		gatewayKey: gatewayKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		stripe:   sc,
		currency: currency,
		logger:   logger,
	}
}

type instantTransferRequest struct {
	AppointmentID string           `json:"appointmentId"`
	Payer         models.PayerInfo `json:"payer"`
	DueDate       string           `json:"dueDate"`
	Description   string           `json:"description"`
}

// CreateInstantTransferCharge creates an instant-transfer charge for the
// appointment and returns the payable code. The charge settles later over the
// gateway's own confirmation channel.
func (c *Client) CreateInstantTransferCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, dueDate time.Time, description string) (*models.InstantTransferCharge, error) {
	if payer.DocumentNumber == "" {
		return nil, fmt.Errorf("payment: payer document number is required")
	}

	reqBody := instantTransferRequest{
		AppointmentID: appointmentID,
		Payer:         payer,
		DueDate:       dueDate.Format("2006-01-02"),
		Description:   description,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("payment: marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/v1/charges/instant-transfer", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.gatewayKey != "" {
		req.Header.Set("X-Api-Key", c.gatewayKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: create instant-transfer charge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("payment gateway error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, fmt.Errorf("payment: create instant-transfer charge: status %d", resp.StatusCode)
	}

	var charge models.InstantTransferCharge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("payment: decode charge response: %w", err)
	}
	c.logger.Info("instant-transfer charge created",
		zap.String("appointmentId", appointmentID),
		zap.Float64("amount", charge.Amount))
	return &charge, nil
}

// CreateCardCharge charges the card for the given amount through Stripe,
// tagging the payment with the appointment id. Success means the payment
// intent settled synchronously.
func (c *Client) CreateCardCharge(ctx context.Context, appointmentID string, payer models.PayerInfo, card models.CardDetails, amount float64) error {
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(card.HolderName),
			Email: stripe.String(payer.Email),
		},
	}
	pmParams.Context = ctx
	pm, err := c.stripe.PaymentMethods.New(pmParams)
	if err != nil {
		return fmt.Errorf("payment: create card payment method: %w", err)
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(amount * 100)),
		Currency:      stripe.String(c.currency),
		PaymentMethod: stripe.String(pm.ID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(fmt.Sprintf("Appointment %s", appointmentID)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	piParams.Context = ctx
	piParams.AddMetadata("appointment_id", appointmentID)
	piParams.AddMetadata("payer_document", payer.DocumentNumber)

	pi, err := c.stripe.PaymentIntents.New(piParams)
	if err != nil {
		return fmt.Errorf("payment: confirm card charge: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment: card charge not settled: status %s", pi.Status)
	}

	c.logger.Info("card charge settled",
		zap.String("appointmentId", appointmentID),
		zap.String("paymentIntent", pi.ID))
	return nil
}
