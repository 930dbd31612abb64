package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qatarjobs-payments/internal/api_gateway/handler"
	"github.com/qatarjobs-payments/internal/api_gateway/middleware"
)

// corsConfig opens the API to every origin; preflights are answered with 200.
func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Content-Type", "Authorization", middleware.CorrelationIDHeader}
	cfg.ExposeHeaders = []string{middleware.CorrelationIDHeader}
	cfg.OptionsResponseStatusCode = http.StatusOK
	return cfg
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	applicationHandler *handler.ApplicationHandler,
) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(handler.RespondMethodNotAllowed)

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig()))

	api := r.Group("/api")
	{
		api.POST("/initiate-payment", paymentHandler.Initiate)
		api.OPTIONS("/initiate-payment", handler.RespondPreflight)

		api.GET("/payment-status", paymentHandler.Status)
		api.OPTIONS("/payment-status", handler.RespondPreflight)

		api.POST("/submit-application", applicationHandler.Submit)
		api.OPTIONS("/submit-application", handler.RespondPreflight)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", middleware.PrometheusHandler())
}
