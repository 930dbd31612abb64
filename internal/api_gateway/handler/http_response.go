package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qatarjobs-payments/internal/api_gateway/middleware"
	"github.com/qatarjobs-payments/internal/domain/shared"
)

const (
	MsgMissingEnvironment = "Server is missing required environment variables"
	MsgInvalidBody        = "Request body is missing or invalid"
	MsgMethodNotAllowed   = "Method not allowed"
	MsgLookupFailed       = "Error checking payment status"
)

// Response represents the envelope shared by every endpoint
type Response struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Payment       interface{} `json:"payment,omitempty"`
	Error         interface{} `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// RespondWithData sends a successful envelope carrying data
func RespondWithData(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Success:       true,
		Message:       message,
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithPayment sends a successful status envelope
func RespondWithPayment(c *gin.Context, payment interface{}) {
	c.JSON(http.StatusOK, &Response{
		Success:       true,
		Payment:       payment,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a failed envelope; detail is omitted when nil
func RespondWithError(c *gin.Context, statusCode int, message string, detail interface{}) {
	c.JSON(statusCode, &Response{
		Success:       false,
		Message:       message,
		Error:         detail,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondBadRequest sends a 400 with message
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, nil)
}

// RespondMethodNotAllowed sends a 405
func RespondMethodNotAllowed(c *gin.Context) {
	RespondWithError(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed, nil)
}

// RespondPreflight answers OPTIONS with an empty 200
func RespondPreflight(c *gin.Context) {
	c.String(http.StatusOK, "")
}

// respondWithServiceError maps the error taxonomy to status codes. Errors outside the
// taxonomy are answered as 500 with fallback.
func respondWithServiceError(c *gin.Context, err error, fallback string) {
	var (
		cfgErr      shared.ErrConfiguration
		validation  shared.ErrValidation
		malformed   shared.ErrUpstreamMalformed
		rejection   shared.ErrBusinessRejection
		lookup      shared.ErrLookup
		unavailable shared.ErrUpstreamUnavailable
	)

	switch {
	case errors.As(err, &cfgErr):
		RespondWithError(c, http.StatusInternalServerError, MsgMissingEnvironment, nil)
	case errors.As(err, &validation):
		RespondBadRequest(c, validation.Message)
	case errors.As(err, &malformed):
		RespondWithError(c, http.StatusBadGateway, "Invalid response from "+malformed.Service, nil)
	case errors.As(err, &rejection):
		RespondWithError(c, http.StatusBadRequest, rejection.Message, rejection.Payload)
	case errors.As(err, &lookup):
		RespondWithError(c, http.StatusInternalServerError, MsgLookupFailed, lookup.Err.Error())
	case errors.As(err, &unavailable):
		RespondWithError(c, http.StatusInternalServerError, fallback, unavailable.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, fallback, err.Error())
	}
}
