package handlers

import (
	"errors"
	"net/http"

	"clinicbook/middleware"
	"clinicbook/models"
	"clinicbook/services/booking"
	"clinicbook/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking saga per session.
type BookingHandler struct {
	Sessions *booking.SessionManager
}

func NewBookingHandler(sessions *booking.SessionManager) *BookingHandler {
	return &BookingHandler{Sessions: sessions}
}

// StartSession opens a new booking session. A valid bearer token makes the
// session an authenticated one; otherwise the actor is a guest.
func (h *BookingHandler) StartSession(c *gin.Context) {
	actor := models.Actor{PatientID: middleware.PatientID(c)}
	id, ctrl := h.Sessions.Open(actor)
	c.JSON(http.StatusCreated, gin.H{
		"sessionID": id,
		"state":     ctrl.State(),
	})
}

// GetState returns the read-only saga snapshot for rendering.
func (h *BookingHandler) GetState(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// SetService records the chosen service, cancelling a stale hold if needed.
func (h *BookingHandler) SetService(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.respond(c, ctrl, ctrl.SetService(svc))
}

// SetSlot records the chosen professional/date/time.
func (h *BookingHandler) SetSlot(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var slot models.Slot
	if err := c.ShouldBindJSON(&slot); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.respond(c, ctrl, ctrl.SetSlot(slot))
}

// SetIdentity records the guest personal-data draft.
func (h *BookingHandler) SetIdentity(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var data models.PersonalData
	if err := c.ShouldBindJSON(&data); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.respond(c, ctrl, ctrl.SetIdentity(data))
}

// SetPaymentMethod records the payment-method draft.
func (h *BookingHandler) SetPaymentMethod(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var draft models.PaymentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.respond(c, ctrl, ctrl.SetPaymentMethod(draft))
}

// Advance moves the saga one step forward.
func (h *BookingHandler) Advance(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, ctrl, ctrl.Advance())
}

// Retreat moves the saga one step backward, compensating as needed.
func (h *BookingHandler) Retreat(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, ctrl, ctrl.Retreat())
}

// Restart clears a completed saga for a fresh attempt.
func (h *BookingHandler) Restart(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, ctrl, ctrl.Restart())
}

// CloseSession tears the session down, cancelling in-flight remote calls.
func (h *BookingHandler) CloseSession(c *gin.Context) {
	if err := h.Sessions.Close(c.Param("sessionID")); err != nil {
		utils.JSONError(c, http.StatusNotFound, "session not found", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) controller(c *gin.Context) (*booking.Controller, bool) {
	ctrl, err := h.Sessions.Get(c.Param("sessionID"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "session not found", err.Error())
		return nil, false
	}
	return ctrl, true
}

func (h *BookingHandler) respond(c *gin.Context, ctrl *booking.Controller, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
			"state": ctrl.State(),
		})
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func statusFor(err error) int {
	var pre *booking.PreconditionError
	var method *booking.UnsupportedMethodError
	var saga *booking.SagaError
	var comp *booking.CompensationError

	switch {
	case errors.Is(err, booking.ErrSagaBusy):
		return http.StatusConflict
	case errors.Is(err, booking.ErrSagaNotCompleted):
		return http.StatusConflict
	case errors.As(err, &pre), errors.As(err, &method):
		return http.StatusUnprocessableEntity
	case errors.As(err, &saga), errors.As(err, &comp):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
