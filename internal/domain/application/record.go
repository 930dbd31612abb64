package application

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"

	DefaultFullName = "Qatar Jobs User"
	DefaultEmail    = "qatarjobs@application.com"
	GuestUserID     = "guest-user"
)

var ErrPhoneRequired = errors.New("phone is required")

// ProjectData is the free-form description of what was applied for, stored as JSONB.
type ProjectData struct {
	UserID        string          `json:"userId"`
	ActivationFee decimal.Decimal `json:"activationFee"`
	JobTitle      string          `json:"jobTitle,omitempty"`
	SubmittedAt   time.Time       `json:"submittedAt"`
}

// Record is a captured lead. It is independent of payment outcome.
type Record struct {
	ID               uuid.UUID       `json:"id"`
	ProjectName      string          `json:"project_name"`
	FullName         string          `json:"full_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	ProjectData      ProjectData     `json:"project_data"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	IPAddress        string          `json:"ip_address"`
	UserAgent        string          `json:"user_agent"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Submission is the input of a lead capture.
type Submission struct {
	Phone            string
	UserID           string
	JobTitle         string
	PaymentReference string
	IPAddress        string
	UserAgent        string
}

// NewRecord builds an unpaid application row from a submission.
func NewRecord(projectName string, amount decimal.Decimal, s Submission) (*Record, error) {
	if strings.TrimSpace(s.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	fullName := s.UserID
	if fullName == "" {
		fullName = DefaultFullName
	}
	userID := s.UserID
	if userID == "" {
		userID = GuestUserID
	}

	var ref *string
	if s.PaymentReference != "" {
		r := s.PaymentReference
		ref = &r
	}

	now := time.Now().UTC()
	return &Record{
		ID:          uuid.New(),
		ProjectName: projectName,
		FullName:    fullName,
		Email:       DefaultEmail,
		Phone:       s.Phone,
		ProjectData: ProjectData{
			UserID:        userID,
			ActivationFee: amount,
			JobTitle:      s.JobTitle,
			SubmittedAt:   now,
		},
		PaymentReference: ref,
		PaymentStatus:    PaymentStatusUnpaid,
		PaymentAmount:    amount,
		IPAddress:        s.IPAddress,
		UserAgent:        s.UserAgent,
		CreatedAt:        now,
	}, nil
}
