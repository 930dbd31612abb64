// Package config provides configuration structures and validation for the payments services.
// Configuration is resolved once at process start and injected into each component's constructor.
// Settings for external collaborators (store, gateway, proxy) are not validated at startup: an
// endpoint that needs a missing setting reports a configuration error for that endpoint only.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration with settings for all components.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Kafka       KafkaConfig
	Gateway     GatewayConfig
	Proxy       ProxyConfig
	Payment     PaymentConfig
	Outbox      OutboxConfig
	Sweeper     SweeperConfig
	WorkerPool  WorkerPoolConfig
	Checkout    CheckoutConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// PostgresConfig contains PostgreSQL configuration.
// URL is optional for the API: without it the store-backed endpoints answer with a configuration error.
type PostgresConfig struct {
	URL             string        // Database connection string, carries the access credential
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// Configured reports whether a store endpoint has been provided.
func (c PostgresConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// MongoDBConfig contains MongoDB configuration. An empty URI disables the audit trail.
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// Configured reports whether the audit trail store has been provided.
func (c MongoDBConfig) Configured() bool {
	return strings.TrimSpace(c.URI) != ""
}

// KafkaConfig contains Kafka configuration. An empty broker list disables event publishing.
type KafkaConfig struct {
	Brokers            string
	PaymentEventsTopic string
	NumPartitions      int
	ReplicationFactor  int
	ConsumerGroup      string
	MinBytes           int
	MaxBytes           int
	MaxWait            time.Duration
	DLQTopic           string
}

// Configured reports whether brokers have been provided.
func (c KafkaConfig) Configured() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

// GatewayConfig holds the mobile-money gateway settings.
type GatewayConfig struct {
	APIKey  string        // required: bearer credential
	TillID  string        // required: merchant/till identifier
	BaseURL string        // required: gateway base URL
	Timeout time.Duration // optional
}

// Missing lists the required gateway settings that are absent.
func (c GatewayConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "SWIFTPAY_API_KEY")
	}
	if strings.TrimSpace(c.TillID) == "" {
		missing = append(missing, "SWIFTPAY_TILL_ID")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "SWIFTPAY_BACKEND_URL")
	}
	return missing
}

// ProxyConfig holds the verification proxy settings.
type ProxyConfig struct {
	URL     string        // required
	APIKey  string        // optional, forwarded in the request body
	Timeout time.Duration // optional
}

// Missing lists the required proxy settings that are absent.
func (c ProxyConfig) Missing() []string {
	if strings.TrimSpace(c.URL) == "" {
		return []string{"MPESA_PROXY_URL"}
	}
	return nil
}

// PaymentConfig holds the business constants of the verification payment.
type PaymentConfig struct {
	FixedAmount     decimal.Decimal // the single accepted amount
	ReferencePrefix string
	Description     string // default charge description
	ProjectName     string // project tag written on application rows
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// SweeperConfig controls out-of-band reconciliation of transactions left pending.
type SweeperConfig struct {
	Interval      time.Duration
	StaleAfter    time.Duration
	BatchSize     int
	RatePerSecond float64 // proxy queries per second across the pool
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// CheckoutConfig drives the terminal checkout client.
type CheckoutConfig struct {
	APIURL       string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HoldDuration time.Duration
	SessionFile  string
}

// validate checks structural values only. External-service settings are checked by the
// endpoints that need them.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	}

	if c.MongoDB.Configured() && c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required when MONGO_URI is set")
	}
	if c.Kafka.Configured() && c.Kafka.PaymentEventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_PAYMENT_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	if !c.Payment.FixedAmount.IsPositive() {
		validationErrors = append(validationErrors, "PAYMENT_FIXED_AMOUNT must be greater than 0")
	}
	if c.Payment.ReferencePrefix == "" {
		validationErrors = append(validationErrors, "PAYMENT_REFERENCE_PREFIX is required")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.Sweeper.Interval <= 0 {
		validationErrors = append(validationErrors, "SWEEPER_INTERVAL must be greater than 0")
	}
	if c.Sweeper.BatchSize <= 0 {
		validationErrors = append(validationErrors, "SWEEPER_BATCH_SIZE must be greater than 0")
	}
	if c.Sweeper.RatePerSecond <= 0 {
		validationErrors = append(validationErrors, "SWEEPER_RATE_PER_SECOND must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Checkout.PollInterval <= 0 {
		validationErrors = append(validationErrors, "CHECKOUT_POLL_INTERVAL must be greater than 0")
	}
	if c.Checkout.PollTimeout < c.Checkout.PollInterval {
		validationErrors = append(validationErrors, "CHECKOUT_POLL_TIMEOUT must not be shorter than CHECKOUT_POLL_INTERVAL")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
