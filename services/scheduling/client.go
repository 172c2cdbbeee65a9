// Package scheduling is a thin HTTP client for the remote scheduling service.
// Each method maps one controller-level intent to exactly one network call;
// there is no caching and no retry here.
package scheduling

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

// Client talks to the scheduling service over JSON/HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a scheduling service client.
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

// HoldRequest describes the slot claim to acquire.
type HoldRequest struct {
	ProfessionalID string `json:"professionalId"`
	ServiceID      string `json:"serviceId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	DurationMin    int    `json:"durationMinutes"`
	PatientID      string `json:"patientId,omitempty"`
}

// HoldResponse is the acquired claim.
type HoldResponse struct {
	HoldID    string    `json:"holdId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Hold acquires a temporary claim on a professional's slot.
func (c *Client) Hold(ctx context.Context, req HoldRequest) (*HoldResponse, error) {
	var out HoldResponse
	if err := c.do(ctx, http.MethodPost, "/v1/holds", req, &out, nil); err != nil {
		return nil, err
	}
	c.logger.Debug("hold acquired", zap.String("holdId", out.HoldID))
	return &out, nil
}

// Cancel releases a hold. Safe to invoke more than once: a hold the service
// no longer knows about counts as cancelled.
func (c *Client) Cancel(ctx context.Context, holdID string) error {
	path := fmt.Sprintf("/v1/holds/%s/cancel", holdID)
	return c.do(ctx, http.MethodPost, path, nil, nil, idempotentStatuses)
}

type confirmResponse struct {
	AppointmentID string `json:"appointmentId"`
}

// Confirm turns a hold into a billable appointment and returns its id.
func (c *Client) Confirm(ctx context.Context, holdID string) (string, error) {
	var out confirmResponse
	path := fmt.Sprintf("/v1/holds/%s/confirm", holdID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out, nil); err != nil {
		return "", err
	}
	return out.AppointmentID, nil
}

// SetStatus forces a hold to the given status. Used for compensation
// (reverting a confirmed hold to held); idempotent like Cancel.
func (c *Client) SetStatus(ctx context.Context, holdID string, status models.HoldStatus) error {
	body := struct {
		Status models.HoldStatus `json:"status"`
	}{Status: status}
	path := fmt.Sprintf("/v1/holds/%s/status", holdID)
	return c.do(ctx, http.MethodPatch, path, body, nil, idempotentStatuses)
}

// DeleteAppointment removes an appointment record. Idempotent.
func (c *Client) DeleteAppointment(ctx context.Context, appointmentID string) error {
	path := fmt.Sprintf("/v1/appointments/%s", appointmentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, idempotentStatuses)
}

// idempotentStatuses are treated as success on undo-style calls: the remote
// record being gone or already in the target state is the outcome we wanted.
var idempotentStatuses = []int{http.StatusNotFound, http.StatusConflict}

func (c *Client) do(ctx context.Context, method, path string, in, out any, okStatuses []int) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("scheduling: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("scheduling: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scheduling: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		for _, s := range okStatuses {
			if resp.StatusCode == s {
				return nil
			}
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("scheduling service error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return fmt.Errorf("scheduling: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("scheduling: decode response: %w", err)
		}
	}
	return nil
}
