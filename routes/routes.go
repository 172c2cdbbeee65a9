package routes

import (
	"net/http"
	"time"

	"clinicbook/handlers"
	"clinicbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterBookingRoutes(r, bookingHandler)
}

// RegisterBookingRoutes registers all endpoints for the booking saga.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	api := r.Group("/api/booking")
	api.Use(middleware.OptionalPatientAuth())
	{
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:sessionID", h.GetState)
		api.DELETE("/sessions/:sessionID", h.CloseSession)

		api.PUT("/sessions/:sessionID/service", h.SetService)
		api.PUT("/sessions/:sessionID/slot", h.SetSlot)
		api.PUT("/sessions/:sessionID/identity", h.SetIdentity)
		api.PUT("/sessions/:sessionID/payment-method", h.SetPaymentMethod)

		api.POST("/sessions/:sessionID/advance", h.Advance)
		api.POST("/sessions/:sessionID/retreat", h.Retreat)
		api.POST("/sessions/:sessionID/restart", h.Restart)
	}
}
