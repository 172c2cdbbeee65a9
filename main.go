// File: clinicbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbook/config"
	"clinicbook/handlers"
	"clinicbook/middleware"
	"clinicbook/models"
	"clinicbook/routes"
	"clinicbook/services/booking"
	"clinicbook/services/identity"
	"clinicbook/services/payment"
	"clinicbook/services/scheduling"
	"clinicbook/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitProgressRedis()
	progressRedis := utils.GetProgressClient()

	// Remote service clients.
	schedulingClient := scheduling.NewClient(
		config.AppConfig.SchedulingAPIURL,
		config.AppConfig.SchedulingAPIKey,
		logger,
	)
	identityClient := identity.NewClient(
		config.AppConfig.IdentityAPIURL,
		config.AppConfig.IdentityAPIKey,
		logger,
	)
	paymentClient := payment.NewClient(
		config.AppConfig.PaymentGatewayURL,
		config.AppConfig.PaymentGatewayKey,
		config.AppConfig.StripeKey,
		config.AppConfig.Currency,
		logger,
	)

	// One saga controller per session; progress streams on a per-session
	// Redis channel alongside the structured log.
	factory := func(sessionID string, actor models.Actor) *booking.Controller {
		return booking.NewController(actor, booking.Deps{
			Reservations: booking.NewReservationClient(schedulingClient),
			Identity:     identityClient,
			Payments:     paymentClient,
			Sink: booking.MultiSink{
				booking.LoggerSink{Logger: logger},
				booking.RedisSink{Client: progressRedis, SessionID: sessionID, Logger: logger},
			},
			Reporter:    booking.DefaultReporter{},
			Logger:      logger,
			SettleDelay: config.IdentitySettleDelay(),
		})
	}
	sessions := booking.NewSessionManager(factory, config.SessionTTL(), logger)
	defer sessions.Shutdown()

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(router, handlers.NewBookingHandler(sessions))

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
