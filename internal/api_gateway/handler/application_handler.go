package handler

import (
	"log/slog"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qatarjobs-payments/internal/api_gateway/service"
)

const (
	MsgApplicationSubmitted = "Application submitted successfully"
	MsgApplicationNotSaved  = "Failed to save application"
)

// ApplicationHandler handles HTTP requests for application submission
type ApplicationHandler struct {
	applicationService service.ApplicationService
	logger             *slog.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(logger *slog.Logger, applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		logger:             logger,
	}
}

// Submit stores an unpaid application
func (h *ApplicationHandler) Submit(c *gin.Context) {
	if err := h.applicationService.Ready(); err != nil {
		respondWithServiceError(c, err, MsgApplicationNotSaved)
		return
	}

	var req SubmitApplicationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Invalid submit application body", "error", err)
			RespondBadRequest(c, MsgInvalidBody)
			return
		}
	}

	res, err := h.applicationService.Submit(c.Request.Context(), &service.SubmitRequest{
		Phone:            req.Phone,
		UserID:           req.UserID,
		PaymentReference: req.PaymentReference,
		JobTitle:         req.JobTitle,
		Amount:           req.Amount,
		IPAddress:        clientIP(c),
		UserAgent:        c.Request.UserAgent(),
	})
	if err != nil {
		h.logger.Error("Failed to submit application", "error", err)
		respondWithServiceError(c, err, MsgApplicationNotSaved)
		return
	}

	RespondWithData(c, MsgApplicationSubmitted, SubmitApplicationResponse{
		ApplicationID: res.ApplicationID.String(),
		Reference:     res.Reference,
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket peer.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(c.Request.RemoteAddr)
	}
	return host
}
