package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/qatarjobs-payments/internal/api_gateway/service"
	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/data/mongo"
	"github.com/qatarjobs-payments/internal/data/postgres"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/logger"
	"github.com/qatarjobs-payments/internal/platform/messaging/consumers"
	"github.com/qatarjobs-payments/internal/platform/messaging/producers"
	"github.com/qatarjobs-payments/internal/platform/mpesaproxy"
	"github.com/qatarjobs-payments/internal/platform/persistence"
	"github.com/qatarjobs-payments/internal/reconciler/consumer"
	"github.com/qatarjobs-payments/internal/reconciler/outbox_poller"
	"github.com/qatarjobs-payments/internal/reconciler/sweeper"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("reconciler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Reconciler",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Unlike the API, the worker has nothing to do without its store.
	if !cfg.Postgres.Configured() {
		log.Error("POSTGRES_URL is required by the reconciler")
		os.Exit(1)
	}
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	var (
		mongoDB  *persistence.MongoDB
		recorder audit.Recorder = audit.NopRecorder{}
	)
	if cfg.MongoDB.Configured() {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		recorder = mongo.NewAuditRepository(log, mongoDB.Database())
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB.Pool(), outboxRepo)
	applicationRepo := postgres.NewApplicationRepository(log, postgresDB.Pool())

	var wg sync.WaitGroup

	var staleSweeper *sweeper.Sweeper
	if missing := cfg.Proxy.Missing(); len(missing) > 0 {
		log.Warn("Verification proxy not configured, stale transaction sweeper disabled", "missing", missing)
	} else {
		statusService := service.NewStatusService(log, cfg.Proxy, transactionRepo, mpesaproxy.NewClient(log, cfg.Proxy), recorder)
		staleSweeper, err = sweeper.NewSweeper(cfg.Sweeper, cfg.WorkerPool, transactionRepo, statusService, log)
		if err != nil {
			log.Error("Failed to initialize sweeper", "error", err)
			os.Exit(1)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			staleSweeper.Start(appCtx)
		}()
	}

	var (
		eventProducer *producers.PaymentEventProducer
		dlqProducer   *producers.DLQProducer
		kafkaConsumer *consumers.KafkaConsumer
	)
	if !cfg.Kafka.Configured() {
		log.Warn("KAFKA_BROKERS not set, payment events stay in the outbox")
	} else {
		eventProducer, err = producers.NewPaymentEventProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize payment event producer", "error", err)
			os.Exit(1)
		}

		// dlqProducer is nil when no DLQ topic is configured.
		dlqProducer, err = producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize DLQ Kafka producer", "error", err)
			os.Exit(1)
		}

		eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, eventProducer, log)
		poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Start(appCtx)
		}()

		var dlq producers.DeadLetterPublisher
		if dlqProducer != nil {
			dlq = dlqProducer
		}
		kafkaConsumer = consumers.NewKafkaConsumer(log, &cfg.Kafka, dlq)
		handler := consumer.NewPaymentEventHandler(log, applicationRepo, recorder)
		if err := kafkaConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
			log.Error("Failed to subscribe to payment events", "error", err)
			os.Exit(1)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("Background workers stopped")
	case <-shutdownCtx.Done():
		log.Warn("Timed out waiting for background workers")
	}

	if staleSweeper != nil {
		staleSweeper.Shutdown()
	}
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}
	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			log.Error("Error closing payment event producer", "error", err)
		}
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ producer", "error", err)
	}

	postgresDB.Close()

	if mongoDB != nil {
		if err := mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	log.Info("Reconciler shutdown completed")
}
