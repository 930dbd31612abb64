package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qatarjobs-payments/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the payment audit collection in MongoDB
	AuditCollectionName = "payment_audit"
)

// AuditRepository implements the audit.Recorder interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the lookup indexes used by FindByReference.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "transaction_request_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create audit indexes", "error", err)
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Record appends an entry to the audit trail.
func (r *AuditRepository) Record(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to record audit entry",
			"kind", string(entry.Kind),
			"reference", entry.Reference,
			"error", err)
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// FindByReference returns the entries matching either identifier, oldest first.
func (r *AuditRepository) FindByReference(ctx context.Context, reference string) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"$or": []bson.M{
		{"reference": reference},
		{"transaction_request_id": reference},
	}}
	opts := options.Find().SetSort(bson.M{"created_at": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find audit entries", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to find audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

var _ audit.Recorder = (*AuditRepository)(nil)
