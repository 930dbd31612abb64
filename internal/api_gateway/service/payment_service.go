package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/domain/phone"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/qatarjobs-payments/internal/platform/metrics"
	"github.com/qatarjobs-payments/internal/platform/swiftpay"
	"github.com/shopspring/decimal"
)

const (
	MsgPhoneRequired = "Phone number is required"
	MsgInvalidPhone  = "Invalid phone number format. Use 07XXXXXXXX or 254XXXXXXXXX"
	MsgInvalidAmount = "Invalid amount"
)

// InitiateRequest is a request to push a payment prompt to a phone.
type InitiateRequest struct {
	PhoneNumber string
	Amount      *decimal.Decimal // nil means the fixed amount
	Description string
}

// InitiateResult is an accepted charge.
type InitiateResult struct {
	TransactionRequestID string
	Reference            string
	Description          string
	Amount               decimal.Decimal
	Persistence          payment.PersistOutcome
}

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	cfg        config.PaymentConfig
	gatewayCfg config.GatewayConfig
	repo       payment.Repository // nil when the store is not configured
	gateway    Gateway
	refs       *payment.ReferenceGenerator
	recorder   audit.Recorder
	logger     *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	logger *slog.Logger,
	cfg config.PaymentConfig,
	gatewayCfg config.GatewayConfig,
	repo payment.Repository,
	gateway Gateway,
	recorder audit.Recorder,
) PaymentService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &PaymentServiceImpl{
		cfg:        cfg,
		gatewayCfg: gatewayCfg,
		repo:       repo,
		gateway:    gateway,
		refs:       payment.NewReferenceGenerator(cfg.ReferencePrefix),
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *PaymentServiceImpl) Ready() error {
	if missing := s.missingConfig(); len(missing) > 0 {
		s.logger.Error("Payment initiation is not configured", "missing", missing)
		return shared.ErrConfiguration{Component: "initiate-payment", Missing: missing}
	}
	return nil
}

func (s *PaymentServiceImpl) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.PhoneNumber) == "" {
		metrics.RecordInitiation("invalid")
		return nil, shared.ErrValidation{Field: "phoneNumber", Message: MsgPhoneRequired}
	}

	normalized, ok := phone.Normalize(req.PhoneNumber)
	if !ok {
		metrics.RecordInitiation("invalid")
		return nil, shared.ErrValidation{Field: "phoneNumber", Message: MsgInvalidPhone}
	}

	amount := s.cfg.FixedAmount
	if req.Amount != nil && !req.Amount.Equal(amount) {
		metrics.RecordInitiation("invalid")
		return nil, shared.ErrValidation{Field: "amount", Message: MsgInvalidAmount}
	}

	description := req.Description
	if description == "" {
		description = s.cfg.Description
	}

	reference := s.refs.Next()
	logger := s.logger.With("reference", reference)

	charge, err := s.gateway.Charge(ctx, swiftpay.ChargeRequest{Phone: normalized, Amount: amount})
	if err != nil {
		metrics.RecordInitiation(initiationResult(err))
		var rejection shared.ErrBusinessRejection
		if errors.As(err, &rejection) {
			s.audit(ctx, audit.NewEntry(audit.KindGatewayCharge, reference, "", map[string]any{
				"accepted": false,
				"message":  rejection.Message,
				"response": rejection.Payload,
			}))
		}
		logger.Warn("Payment initiation failed", "error", err)
		return nil, err
	}
	metrics.RecordInitiation("accepted")

	requestID := charge.CheckoutID
	if requestID == "" {
		requestID = reference
	}
	logger = logger.With("transaction_request_id", requestID)

	s.audit(ctx, audit.NewEntry(audit.KindGatewayCharge, reference, requestID, map[string]any{
		"accepted": true,
		"response": charge.Payload,
	}))

	outcome := s.record(ctx, logger, requestID, reference, normalized, amount)

	logger.Info("Payment initiated", "persistence", outcome.String())
	return &InitiateResult{
		TransactionRequestID: requestID,
		Reference:            reference,
		Description:          description,
		Amount:               amount,
		Persistence:          outcome,
	}, nil
}

// record stores the accepted charge. Failures degrade the outcome but never fail the initiation.
func (s *PaymentServiceImpl) record(ctx context.Context, logger *slog.Logger, requestID, reference, phoneNumber string, amount decimal.Decimal) payment.PersistOutcome {
	txn, err := payment.NewPendingTransaction(requestID, reference, phoneNumber, amount)
	if err != nil {
		logger.Error("Failed to build transaction", "error", err)
		metrics.RecordPersistence(payment.NotPersisted.String())
		return payment.NotPersisted
	}

	outcome, err := s.repo.Record(ctx, txn)
	metrics.RecordPersistence(outcome.String())
	if err == nil {
		return outcome
	}

	logger.Error("Transaction not fully persisted after accepted charge",
		"outcome", outcome.String(),
		"error", err,
	)
	s.audit(ctx, audit.NewEntry(audit.KindPersistence, reference, requestID, map[string]any{
		"outcome": outcome.String(),
		"error":   err.Error(),
	}))
	return outcome
}

func (s *PaymentServiceImpl) missingConfig() []string {
	var missing []string
	if s.repo == nil {
		missing = append(missing, "POSTGRES_URL")
	}
	return append(missing, s.gatewayCfg.Missing()...)
}

func (s *PaymentServiceImpl) audit(ctx context.Context, entry *audit.Entry) {
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", "kind", string(entry.Kind), "reference", entry.Reference, "error", err)
	}
}

func initiationResult(err error) string {
	var (
		rejection   shared.ErrBusinessRejection
		malformed   shared.ErrUpstreamMalformed
		unavailable shared.ErrUpstreamUnavailable
	)
	switch {
	case errors.As(err, &rejection):
		return "rejected"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &unavailable):
		return "unavailable"
	default:
		return "error"
	}
}
