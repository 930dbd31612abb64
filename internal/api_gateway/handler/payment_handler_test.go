package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qatarjobs-payments/internal/api_gateway/service"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPaymentRouter(h *PaymentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/initiate-payment", h.Initiate)
	router.GET("/api/payment-status", h.Status)
	return router
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestPaymentHandler_Initiate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		paymentSvc.On("Ready").Return(nil)
		h := NewPaymentHandler(newTestLogger(), paymentSvc, new(MockStatusService))
		router := setupPaymentRouter(h)

		paymentSvc.On("Initiate", mock.Anything, mock.MatchedBy(func(req *service.InitiateRequest) bool {
			return req.PhoneNumber == "0712345678" && req.Amount != nil && req.Amount.Equal(decimal.NewFromInt(240))
		})).Return(&service.InitiateResult{
			TransactionRequestID: "CHK1",
			Reference:            "QATAR-1700000000000",
			Description:          "Qatar Jobs Portal Verification",
			Amount:               decimal.NewFromInt(240),
			Persistence:          payment.Persisted,
		}, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/api/initiate-payment", bytes.NewBufferString(`{"phoneNumber":"0712345678","amount":240}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, MsgPaymentInitiated, body["message"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "CHK1", data["requestId"])
		assert.Equal(t, "CHK1", data["checkoutRequestId"])
		assert.Equal(t, "CHK1", data["transactionRequestId"])
		assert.Equal(t, "QATAR-1700000000000", data["reference"])
		assert.Equal(t, float64(240), data["amount"])
		paymentSvc.AssertExpectations(t)
	})

	t.Run("MissingBody", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		paymentSvc.On("Ready").Return(nil)
		router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), paymentSvc, new(MockStatusService)))

		req, _ := http.NewRequest(http.MethodPost, "/api/initiate-payment", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, MsgInvalidBody, body["message"])
		paymentSvc.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
	})

	t.Run("NotConfiguredRejectsBeforeReadingBody", func(t *testing.T) {
		for _, raw := range []string{"", "{not json"} {
			paymentSvc := new(MockPaymentService)
			paymentSvc.On("Ready").Return(shared.ErrConfiguration{Component: "initiate-payment", Missing: []string{"POSTGRES_URL"}})
			router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), paymentSvc, new(MockStatusService)))

			req, _ := http.NewRequest(http.MethodPost, "/api/initiate-payment", bytes.NewBufferString(raw))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusInternalServerError, rr.Code, raw)
			assert.Equal(t, MsgMissingEnvironment, decodeBody(t, rr)["message"])
			paymentSvc.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
		}
	})

	errorCases := []struct {
		name     string
		err      error
		status   int
		message  string
		hasError bool
	}{
		{"Configuration", shared.ErrConfiguration{Component: "initiate-payment", Missing: []string{"SWIFTPAY_API_KEY"}}, http.StatusInternalServerError, MsgMissingEnvironment, false},
		{"Validation", shared.ErrValidation{Field: "amount", Message: "Invalid amount"}, http.StatusBadRequest, "Invalid amount", false},
		{"Malformed", shared.ErrUpstreamMalformed{Service: "payment service"}, http.StatusBadGateway, "Invalid response from payment service", false},
		{"Rejection", shared.ErrBusinessRejection{Message: "Till inactive", Payload: map[string]any{"success": false}}, http.StatusBadRequest, "Till inactive", true},
		{"Unavailable", shared.ErrUpstreamUnavailable{Service: "payment service", Err: errors.New("dial tcp: refused")}, http.StatusInternalServerError, MsgInitiationUnexpected, true},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			paymentSvc := new(MockPaymentService)
			router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), paymentSvc, new(MockStatusService)))
			paymentSvc.On("Ready").Return(nil)
			paymentSvc.On("Initiate", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			req, _ := http.NewRequest(http.MethodPost, "/api/initiate-payment", bytes.NewBufferString(`{"phoneNumber":"0712345678"}`))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
			_, hasError := body["error"]
			assert.Equal(t, tc.hasError, hasError)
		})
	}
}

func TestPaymentHandler_Status(t *testing.T) {
	t.Run("StoredTransaction", func(t *testing.T) {
		statusSvc := new(MockStatusService)
		router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), new(MockPaymentService), statusSvc))

		updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		txn := &payment.Transaction{
			Phone:     "254712345678",
			Amount:    decimal.NewFromInt(240),
			Status:    payment.StatusSuccess,
			UpdatedAt: updated,
		}
		statusSvc.On("Resolve", mock.Anything, "QATAR-1").Return(payment.ViewOf(txn, payment.CanonicalSuccess), nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/payment-status?reference=QATAR-1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, true, body["success"])
		assert.NotContains(t, body, "message")
		p := body["payment"].(map[string]interface{})
		assert.Equal(t, "SUCCESS", p["status"])
		assert.Equal(t, float64(240), p["amount"])
		assert.Equal(t, "254712345678", p["phoneNumber"])
		assert.Nil(t, p["mpesaReceiptNumber"])
		assert.Contains(t, p, "resultCode")
		assert.Equal(t, "2024-05-01T10:00:00Z", p["timestamp"])
	})

	t.Run("UnknownReferenceIsPending", func(t *testing.T) {
		statusSvc := new(MockStatusService)
		router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), new(MockPaymentService), statusSvc))
		statusSvc.On("Resolve", mock.Anything, "QATAR-404").Return(payment.DefaultPendingView(), nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/payment-status?reference=QATAR-404", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		p := decodeBody(t, rr)["payment"].(map[string]interface{})
		assert.Equal(t, "PENDING", p["status"])
		assert.Equal(t, payment.PendingMessage, p["message"])
	})

	t.Run("MissingReference", func(t *testing.T) {
		statusSvc := new(MockStatusService)
		router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), new(MockPaymentService), statusSvc))
		statusSvc.On("Resolve", mock.Anything, "").Return(nil, shared.ErrValidation{Field: "reference", Message: service.MsgReferenceRequired}).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/payment-status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, service.MsgReferenceRequired, decodeBody(t, rr)["message"])
	})

	t.Run("LookupFailure", func(t *testing.T) {
		statusSvc := new(MockStatusService)
		router := setupPaymentRouter(NewPaymentHandler(newTestLogger(), new(MockPaymentService), statusSvc))
		statusSvc.On("Resolve", mock.Anything, "QATAR-1").Return(nil, shared.ErrLookup{Err: errors.New("timeout")}).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/payment-status?reference=QATAR-1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, MsgLookupFailed, body["message"])
		assert.Equal(t, "timeout", body["error"])
	})
}
