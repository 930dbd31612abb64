package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestApplicationServiceImpl_Submit(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockApplicationRepository)
		svc := NewApplicationService(logger, testPaymentConfig(), repo)
		id := uuid.New()

		repo.On("Create", ctx, mock.MatchedBy(func(rec *application.Record) bool {
			return rec.Phone == "0712345678" &&
				rec.ProjectName == "QATAR" &&
				rec.FullName == "user-7" &&
				rec.ProjectData.UserID == "user-7" &&
				rec.ProjectData.JobTitle == "Driver" &&
				rec.PaymentStatus == application.PaymentStatusUnpaid &&
				rec.PaymentAmount.Equal(decimal.NewFromInt(240)) &&
				rec.IPAddress == "10.0.0.1" &&
				rec.PaymentReference != nil && *rec.PaymentReference == "QATAR-1"
		})).Return(id, nil).Once()

		res, err := svc.Submit(ctx, &SubmitRequest{
			Phone:            "0712345678",
			UserID:           "user-7",
			JobTitle:         "Driver",
			PaymentReference: "QATAR-1",
			IPAddress:        "10.0.0.1",
		})

		require.NoError(t, err)
		assert.Equal(t, id, res.ApplicationID)
		require.NotNil(t, res.Reference)
		assert.Equal(t, "QATAR-1", *res.Reference)
		repo.AssertExpectations(t)
	})

	t.Run("GuestDefaults", func(t *testing.T) {
		repo := new(MockApplicationRepository)
		svc := NewApplicationService(logger, testPaymentConfig(), repo)

		repo.On("Create", ctx, mock.MatchedBy(func(rec *application.Record) bool {
			return rec.FullName == application.DefaultFullName &&
				rec.ProjectData.UserID == application.GuestUserID &&
				rec.Email == application.DefaultEmail &&
				rec.PaymentReference == nil
		})).Return(uuid.New(), nil).Once()

		res, err := svc.Submit(ctx, &SubmitRequest{Phone: "0712345678", Amount: decimalPtr(240)})

		require.NoError(t, err)
		assert.Nil(t, res.Reference)
		repo.AssertExpectations(t)
	})

	t.Run("MissingPhoneWritesNothing", func(t *testing.T) {
		repo := new(MockApplicationRepository)
		svc := NewApplicationService(logger, testPaymentConfig(), repo)

		res, err := svc.Submit(ctx, &SubmitRequest{UserID: "user-7"})

		assert.Nil(t, res)
		var validation shared.ErrValidation
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, MsgMissingPhone, validation.Message)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("WrongAmount", func(t *testing.T) {
		repo := new(MockApplicationRepository)
		svc := NewApplicationService(logger, testPaymentConfig(), repo)

		_, err := svc.Submit(ctx, &SubmitRequest{Phone: "0712345678", Amount: decimalPtr(500)})

		var validation shared.ErrValidation
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, MsgInvalidAmount, validation.Message)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		repo := new(MockApplicationRepository)
		svc := NewApplicationService(logger, testPaymentConfig(), repo)
		dbErr := errors.New("insert failed")

		repo.On("Create", ctx, mock.Anything).Return(uuid.Nil, dbErr).Once()

		res, err := svc.Submit(ctx, &SubmitRequest{Phone: "0712345678"})

		assert.Nil(t, res)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("MissingConfiguration", func(t *testing.T) {
		svc := NewApplicationService(logger, testPaymentConfig(), nil)

		_, err := svc.Submit(ctx, &SubmitRequest{Phone: "0712345678"})

		var cfgErr shared.ErrConfiguration
		require.True(t, errors.As(err, &cfgErr))
		assert.ErrorAs(t, svc.Ready(), &cfgErr)
	})
}
