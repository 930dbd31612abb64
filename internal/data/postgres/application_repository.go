package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/platform/persistence"
)

// ApplicationRepository implements the application.Repository interface for PostgreSQL
type ApplicationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewApplicationRepository creates a new PostgreSQL application repository
func NewApplicationRepository(logger *slog.Logger, querier persistence.Querier) application.Repository {
	return &ApplicationRepository{
		querier: querier,
		logger:  logger,
	}
}

// Create inserts an application and returns the stored identifier.
func (r *ApplicationRepository) Create(ctx context.Context, rec *application.Record) (uuid.UUID, error) {
	projectData, err := json.Marshal(rec.ProjectData)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode project data: %w", err)
	}

	query := `
		INSERT INTO applications (id, project_name, full_name, email, phone, project_data, payment_reference,
			payment_status, payment_amount, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12)
		RETURNING id
	`

	var id uuid.UUID
	err = r.querier.QueryRow(ctx, query,
		rec.ID,
		rec.ProjectName,
		rec.FullName,
		rec.Email,
		rec.Phone,
		projectData,
		rec.PaymentReference,
		rec.PaymentStatus,
		rec.PaymentAmount.String(),
		rec.IPAddress,
		rec.UserAgent,
		rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create application", "id", rec.ID.String(), "error", err)
		return uuid.Nil, fmt.Errorf("failed to create application: %w", err)
	}

	return id, nil
}

// MarkPaid flips unpaid applications carrying any of refs as their payment reference.
func (r *ApplicationRepository) MarkPaid(ctx context.Context, refs ...string) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE applications
		SET payment_status = $1
		WHERE payment_reference = ANY($2) AND payment_status = $3
	`

	result, err := r.querier.Exec(ctx, query, application.PaymentStatusPaid, refs, application.PaymentStatusUnpaid)
	if err != nil {
		r.logger.Error("Failed to mark applications paid", "references", refs, "error", err)
		return 0, fmt.Errorf("failed to mark applications paid: %w", err)
	}

	return result.RowsAffected(), nil
}
