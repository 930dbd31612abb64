package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qatarjobs-payments/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// AuditAppName identifies audit trail connections in the server's currentOp and logs.
const AuditAppName = "qatarjobs-payments-audit"

// MongoDB holds the connection to the audit trail database.
type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB connects to the audit trail database and verifies the connection.
// The audit trail is optional, so a server that cannot be selected within cfg.Timeout fails fast.
func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	if cfg.Database == "" {
		return nil, errors.New("MongoDB audit database name is required")
	}

	client, err := mongo.Connect(ctx, mongoClientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB audit trail", "database", cfg.Database)
	return newMongoDB(logger, client, cfg.Database), nil
}

func newMongoDB(logger *slog.Logger, client *mongo.Client, database string) *MongoDB {
	return &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database(database),
	}
}

func mongoClientOptions(cfg *config.MongoDBConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(AuditAppName).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}
	return opts
}

// Database is the audit trail database named by MONGO_DATABASE.
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	m.logger.Info("Closed MongoDB connection")
	return nil
}
