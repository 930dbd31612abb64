package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const MsgMissingPhone = "Missing required field: phone"

// SubmitRequest is an application as received from the portal.
type SubmitRequest struct {
	Phone            string
	UserID           string
	PaymentReference string
	JobTitle         string
	Amount           *decimal.Decimal // nil means the fixed amount
	IPAddress        string
	UserAgent        string
}

// SubmitResult identifies the stored application.
type SubmitResult struct {
	ApplicationID uuid.UUID
	Reference     *string
}

// ApplicationServiceImpl implements the ApplicationService interface
type ApplicationServiceImpl struct {
	cfg    config.PaymentConfig
	repo   application.Repository // nil when the store is not configured
	logger *slog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(logger *slog.Logger, cfg config.PaymentConfig, repo application.Repository) ApplicationService {
	return &ApplicationServiceImpl{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
	}
}

func (s *ApplicationServiceImpl) Ready() error {
	if s.repo == nil {
		s.logger.Error("Application submission is not configured", "missing", "POSTGRES_URL")
		return shared.ErrConfiguration{Component: "submit-application", Missing: []string{"POSTGRES_URL"}}
	}
	return nil
}

func (s *ApplicationServiceImpl) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Phone) == "" {
		return nil, shared.ErrValidation{Field: "phone", Message: MsgMissingPhone}
	}

	amount := s.cfg.FixedAmount
	if req.Amount != nil && !req.Amount.Equal(amount) {
		return nil, shared.ErrValidation{Field: "amount", Message: MsgInvalidAmount}
	}

	rec, err := application.NewRecord(s.cfg.ProjectName, amount, application.Submission{
		Phone:            req.Phone,
		UserID:           req.UserID,
		JobTitle:         req.JobTitle,
		PaymentReference: req.PaymentReference,
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
	})
	if err != nil {
		return nil, shared.ErrValidation{Field: "phone", Message: MsgMissingPhone}
	}

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application submitted",
		"application_id", id.String(),
		"has_payment_reference", rec.PaymentReference != nil,
	)
	return &SubmitResult{ApplicationID: id, Reference: rec.PaymentReference}, nil
}
