// Package identity is a thin HTTP client for the patient identity service.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clinicbook/models"

	"go.uber.org/zap"
)

const defaultTimeout = 20 * time.Second

// Client talks to the identity service over JSON/HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an identity service client.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type createAndLinkRequest struct {
	HoldID string `json:"holdId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

type createAndLinkResponse struct {
	AccountCreated bool `json:"accountCreated"`
}

// CreateAndLink creates a patient account from the guest's personal data and
// links it to the reservation hold. Returns whether a new account was created
// (false means the service matched an existing one by email/phone).
func (c *Client) CreateAndLink(ctx context.Context, holdID string, data models.PersonalData) (bool, error) {
	req := createAndLinkRequest{
		HoldID: holdID,
		Name:   data.Name,
		Email:  data.Email,
		Phone:  data.Phone,
	}
	var out createAndLinkResponse
	if err := c.do(ctx, http.MethodPost, "/v1/patients", req, &out); err != nil {
		return false, err
	}
	c.logger.Debug("patient linked to hold",
		zap.String("holdId", holdID),
		zap.Bool("accountCreated", out.AccountCreated))
	return out.AccountCreated, nil
}

type linkAppointmentRequest struct {
	HoldID string `json:"holdId"`
}

type linkAppointmentResponse struct {
	AppointmentID string `json:"appointmentId"`
}

// LinkAndCreateAppointment links an existing patient account to the hold and
// creates the appointment in one remote operation.
func (c *Client) LinkAndCreateAppointment(ctx context.Context, holdID, patientID string) (string, error) {
	path := fmt.Sprintf("/v1/patients/%s/appointments", patientID)
	var out linkAppointmentResponse
	if err := c.do(ctx, http.MethodPost, path, linkAppointmentRequest{HoldID: holdID}, &out); err != nil {
		return "", err
	}
	return out.AppointmentID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("identity: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("identity service error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return fmt.Errorf("identity: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("identity: decode response: %w", err)
		}
	}
	return nil
}
