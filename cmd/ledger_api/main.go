package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/data/mongo"
	"github.com/corebank-ledger/internal/data/postgres"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/ledger_api"
	"github.com/corebank-ledger/internal/ledger_api/service"
	"github.com/corebank-ledger/internal/logger"
	"github.com/corebank-ledger/internal/platform/locking"
	"github.com/corebank-ledger/internal/platform/messaging/producers"
	"github.com/corebank-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"lock_backend", cfg.Locking.Backend,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	locker, err := locking.New(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize account lock coordinator", "error", err)
		os.Exit(1)
	}

	commandProducer, err := producers.NewCommandProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize command producer", "error", err)
		os.Exit(1)
	}

	// Repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	auditRepo := postgres.NewAuditRepository(log, postgresDB)
	eventArchive := mongo.NewEventRepository(log, mongoDB.Database(), cfg.MongoDB.EventsCollection)

	// Ledger core
	store := postgres.NewLedgerStore(log, postgresDB, cfg.Postgres.LockTimeout)
	engine := ledger.NewEngine(store, locker, log)
	accounts := ledger.NewAccounts(store, locker, log)

	services := ledger_api.Services{
		Accounts:     service.NewAccountService(log, accounts, engine, accountRepo, eventArchive),
		Transactions: service.NewTransactionService(log, engine, transactionRepo, accountRepo),
		Audit:        service.NewAuditService(log, auditRepo),
		Commands:     service.NewCommandService(log, commandProducer),
	}
	checks := map[string]ledger_api.HealthCheck{
		"postgres": postgresDB.Ping,
		"mongodb":  mongoDB.Ping,
	}
	if locker.Distributed() {
		checks["redis"] = locker.Ping
	}

	server := ledger_api.NewServer(log, cfg, services, checks)

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
	case serverErr = <-errChan:
		log.Error("Server error occurred", "error", serverErr)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// stop taking requests before closing what they use
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}
	if err := commandProducer.Close(); err != nil {
		log.Error("Error closing command producer", "error", err)
		shutdownErr = err
	}
	if err := locker.Close(); err != nil {
		log.Error("Error closing lock coordinator", "error", err)
		shutdownErr = err
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}
	postgresDB.Close()

	if serverErr != nil || shutdownErr != nil {
		log.Error("Ledger API shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Ledger API shutdown completed successfully")
}
