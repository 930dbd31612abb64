package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qatarjobs-payments/internal/api_gateway"
	"github.com/qatarjobs-payments/internal/api_gateway/service"
	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/data/mongo"
	"github.com/qatarjobs-payments/internal/data/postgres"
	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/logger"
	"github.com/qatarjobs-payments/internal/platform/mpesaproxy"
	"github.com/qatarjobs-payments/internal/platform/persistence"
	"github.com/qatarjobs-payments/internal/platform/swiftpay"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("payments_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// The store is optional at startup: without it the store-backed endpoints
	// answer with a configuration error instead of the process refusing to run.
	var (
		postgresDB   *persistence.PostgresDB
		transactions payment.Repository
		applications application.Repository
	)
	if cfg.Postgres.Configured() {
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
		outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())
		transactions = postgres.NewTransactionRepository(log, postgresDB.Pool(), outboxRepo)
		applications = postgres.NewApplicationRepository(log, postgresDB.Pool())
	} else {
		log.Warn("POSTGRES_URL not set, payment and application endpoints will report a configuration error")
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
		auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
		if err := auditRepo.EnsureIndexes(appCtx); err != nil {
			log.Warn("Failed to ensure audit indexes", "error", err)
		}
		recorder = auditRepo
	}

	gateway := swiftpay.NewClient(log, cfg.Gateway)
	proxy := mpesaproxy.NewClient(log, cfg.Proxy)

	paymentService := service.NewPaymentService(log, cfg.Payment, cfg.Gateway, transactions, gateway, recorder)
	statusService := service.NewStatusService(log, cfg.Proxy, transactions, proxy, recorder)
	applicationService := service.NewApplicationService(log, cfg.Payment, applications)

	server := api_gateway.NewServer(log, cfg, paymentService, statusService, applicationService)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if postgresDB != nil {
		postgresDB.Close()
	}

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Server shutdown completed")
}
