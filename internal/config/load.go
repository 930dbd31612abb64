package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LoadConfigWithName loads configuration using the specified name, auto-detecting the file type
func LoadConfigWithName(configName string) (*Config, error) {
	return loadConfig(viper.New(), configName, "")
}

// LoadConfig loads configuration from a .env file using the provided base name
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(viper.New(), configFileName, "env")
}

// LoadConfigInto loads configuration through an existing viper instance, so callers can bind
// command-line flags before the environment and file layers are applied.
func LoadConfigInto(v *viper.Viper, configName string) (*Config, error) {
	return loadConfig(v, fmt.Sprintf("%s.env", configName), "env")
}

// loadConfig handles configuration loading from files and environment variables.
// 1. Load defaults
// 2. Override with config file values (if found)
// 3. Override with environment variables
// 4. Validate the final configuration
func loadConfig(v *viper.Viper, configName, configType string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("INFO: No config file '%s' found, relying on environment variables and defaults.\n", configName)
		} else {
			fmt.Printf("WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Printf("INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv()

	fixedAmount, err := decimal.NewFromString(v.GetString("PAYMENT_FIXED_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: PAYMENT_FIXED_AMOUNT: %w", err)
	}

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			URL:             v.GetString("POSTGRES_URL"),
			MaxConns:        int32(v.GetInt("POSTGRES_MAX_CONNS")),
			MinConns:        int32(v.GetInt("POSTGRES_MIN_CONNS")),
			ConnMaxLifetime: v.GetDuration("POSTGRES_MAX_CONN_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("POSTGRES_MAX_CONN_IDLE_TIME"),
			MigrationsPath:  v.GetString("POSTGRES_MIGRATIONS_PATH"),
		},
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGO_URI"),
			Database:        v.GetString("MONGO_DATABASE"),
			Timeout:         v.GetDuration("MONGO_TIMEOUT"),
			MaxPoolSize:     uint64(v.GetInt("MONGO_MAX_POOL_SIZE")),
			MinPoolSize:     uint64(v.GetInt("MONGO_MIN_POOL_SIZE")),
			MaxConnIdleTime: v.GetDuration("MONGO_MAX_CONN_IDLE_TIME"),
		},
		Kafka: KafkaConfig{
			Brokers:            v.GetString("KAFKA_BROKERS"),
			PaymentEventsTopic: v.GetString("KAFKA_PAYMENT_EVENTS_TOPIC"),
			NumPartitions:      v.GetInt("KAFKA_NUM_PARTITIONS"),
			ReplicationFactor:  v.GetInt("KAFKA_REPLICATION_FACTOR"),
			ConsumerGroup:      v.GetString("KAFKA_CONSUMER_GROUP"),
			MinBytes:           v.GetInt("KAFKA_CONSUMER_MIN_BYTES"),
			MaxBytes:           v.GetInt("KAFKA_CONSUMER_MAX_BYTES"),
			MaxWait:            v.GetDuration("KAFKA_CONSUMER_MAX_WAIT"),
			DLQTopic:           v.GetString("KAFKA_DLQ_TOPIC"),
		},
		Gateway: GatewayConfig{
			APIKey:  v.GetString("SWIFTPAY_API_KEY"),
			TillID:  v.GetString("SWIFTPAY_TILL_ID"),
			BaseURL: v.GetString("SWIFTPAY_BACKEND_URL"),
			Timeout: v.GetDuration("SWIFTPAY_TIMEOUT"),
		},
		Proxy: ProxyConfig{
			URL:     v.GetString("MPESA_PROXY_URL"),
			APIKey:  v.GetString("MPESA_PROXY_API_KEY"),
			Timeout: v.GetDuration("MPESA_PROXY_TIMEOUT"),
		},
		Payment: PaymentConfig{
			FixedAmount:     fixedAmount,
			ReferencePrefix: v.GetString("PAYMENT_REFERENCE_PREFIX"),
			Description:     v.GetString("PAYMENT_DESCRIPTION"),
			ProjectName:     v.GetString("PAYMENT_PROJECT_NAME"),
		},
		Outbox: OutboxConfig{
			PollingInterval:  v.GetDuration("OUTBOX_POLLING_INTERVAL"),
			BatchSize:        v.GetInt("OUTBOX_BATCH_SIZE"),
			MaxRetryAttempts: v.GetInt("OUTBOX_MAX_RETRY_ATTEMPTS"),
		},
		Sweeper: SweeperConfig{
			Interval:      v.GetDuration("SWEEPER_INTERVAL"),
			StaleAfter:    v.GetDuration("SWEEPER_STALE_AFTER"),
			BatchSize:     v.GetInt("SWEEPER_BATCH_SIZE"),
			RatePerSecond: v.GetFloat64("SWEEPER_RATE_PER_SECOND"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
		Checkout: CheckoutConfig{
			APIURL:       v.GetString("CHECKOUT_API_URL"),
			PollInterval: v.GetDuration("CHECKOUT_POLL_INTERVAL"),
			PollTimeout:  v.GetDuration("CHECKOUT_POLL_TIMEOUT"),
			HoldDuration: v.GetDuration("CHECKOUT_HOLD_DURATION"),
			SessionFile:  v.GetString("CHECKOUT_SESSION_FILE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with default values used when no configuration file or
// environment variables are present. Credentials and external endpoints have no defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)

	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_MAX_CONN_LIFETIME", time.Hour)
	v.SetDefault("POSTGRES_MAX_CONN_IDLE_TIME", 30*time.Minute)
	v.SetDefault("POSTGRES_MIGRATIONS_PATH", "migrations/postgres")

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "jobs_portal")
	v.SetDefault("MONGO_TIMEOUT", 10*time.Second)
	v.SetDefault("MONGO_MAX_POOL_SIZE", 50)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 5)
	v.SetDefault("MONGO_MAX_CONN_IDLE_TIME", 30*time.Minute)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_PAYMENT_EVENTS_TOPIC", "payment_events")
	v.SetDefault("KAFKA_NUM_PARTITIONS", 1)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("KAFKA_CONSUMER_GROUP", "payment-reconciler-group")
	v.SetDefault("KAFKA_CONSUMER_MIN_BYTES", 1)
	v.SetDefault("KAFKA_CONSUMER_MAX_BYTES", 10485760)
	v.SetDefault("KAFKA_CONSUMER_MAX_WAIT", time.Second)
	v.SetDefault("KAFKA_DLQ_TOPIC", "payment_events_dlq")

	v.SetDefault("SWIFTPAY_TIMEOUT", 30*time.Second)
	v.SetDefault("MPESA_PROXY_TIMEOUT", 10*time.Second)

	v.SetDefault("PAYMENT_FIXED_AMOUNT", "240")
	v.SetDefault("PAYMENT_REFERENCE_PREFIX", "QATAR")
	v.SetDefault("PAYMENT_DESCRIPTION", "Qatar Jobs Portal Verification")
	v.SetDefault("PAYMENT_PROJECT_NAME", "QATAR")

	v.SetDefault("OUTBOX_POLLING_INTERVAL", 5*time.Second)
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_MAX_RETRY_ATTEMPTS", 5)

	v.SetDefault("SWEEPER_INTERVAL", time.Minute)
	v.SetDefault("SWEEPER_STALE_AFTER", 2*time.Minute)
	v.SetDefault("SWEEPER_BATCH_SIZE", 50)
	v.SetDefault("SWEEPER_RATE_PER_SECOND", 5.0)

	v.SetDefault("WORKER_POOL_SIZE", 10)

	v.SetDefault("CHECKOUT_API_URL", "http://localhost:8080")
	v.SetDefault("CHECKOUT_POLL_INTERVAL", 3*time.Second)
	v.SetDefault("CHECKOUT_POLL_TIMEOUT", 120*time.Second)
	v.SetDefault("CHECKOUT_HOLD_DURATION", 8*time.Minute)
	v.SetDefault("CHECKOUT_SESSION_FILE", ".checkout_session.json")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "jobs-portal-payments")
}
