package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/qatarjobs-payments/internal/api_gateway/service"
)

const (
	MsgPaymentInitiated     = "Payment initiated successfully"
	MsgInitiationUnexpected = "An unexpected server error occurred"
	MsgStatusUnexpected     = "Failed to check payment status"
)

// PaymentHandler handles HTTP requests for payment initiation and status
type PaymentHandler struct {
	paymentService service.PaymentService
	statusService  service.StatusService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService, statusService service.StatusService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		statusService:  statusService,
		logger:         logger,
	}
}

// Initiate pushes a payment prompt to the applicant's phone
func (h *PaymentHandler) Initiate(c *gin.Context) {
	if err := h.paymentService.Ready(); err != nil {
		respondWithServiceError(c, err, MsgInitiationUnexpected)
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid initiate payment body", "error", err)
		RespondBadRequest(c, MsgInvalidBody)
		return
	}

	res, err := h.paymentService.Initiate(c.Request.Context(), &service.InitiateRequest{
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(c, err, MsgInitiationUnexpected)
		return
	}

	RespondWithData(c, MsgPaymentInitiated, InitiatePaymentResponse{
		RequestID:            res.TransactionRequestID,
		CheckoutRequestID:    res.TransactionRequestID,
		TransactionRequestID: res.TransactionRequestID,
		Reference:            res.Reference,
		Description:          res.Description,
		Amount:               json.Number(res.Amount.String()),
	})
}

// Status resolves the canonical status of ?reference=. Unknown and pending payments are 200s.
func (h *PaymentHandler) Status(c *gin.Context) {
	view, err := h.statusService.Resolve(c.Request.Context(), c.Query("reference"))
	if err != nil {
		respondWithServiceError(c, err, MsgStatusUnexpected)
		return
	}

	RespondWithPayment(c, view)
}
