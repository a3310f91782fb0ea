package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/corebank-ledger/internal/config"
	"github.com/corebank-ledger/internal/data/mongo"
	"github.com/corebank-ledger/internal/data/postgres"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/ledger_worker/consumer"
	"github.com/corebank-ledger/internal/ledger_worker/interest"
	"github.com/corebank-ledger/internal/ledger_worker/outbox_poller"
	"github.com/corebank-ledger/internal/ledger_worker/service"
	"github.com/corebank-ledger/internal/logger"
	"github.com/corebank-ledger/internal/platform/locking"
	"github.com/corebank-ledger/internal/platform/messaging/consumers"
	"github.com/corebank-ledger/internal/platform/messaging/producers"
	"github.com/corebank-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting ledger worker",
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
	if err := mongo.EnsureEventIndexes(appCtx, mongoDB.Database(), cfg.MongoDB.EventsCollection); err != nil {
		log.Error("Failed to create event archive indexes", "error", err)
		os.Exit(1)
	}

	locker, err := locking.New(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize account lock coordinator", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize event producer", "error", err)
		os.Exit(1)
	}
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	eventArchive := mongo.NewEventRepository(log, mongoDB.Database(), cfg.MongoDB.EventsCollection)

	// Ledger core
	store := postgres.NewLedgerStore(log, postgresDB, cfg.Postgres.LockTimeout)
	engine := ledger.NewEngine(store, locker, log)

	// Command processing
	commandService := service.NewCommandService(engine, transactionRepo, service.RetryPolicyFromConfig(&cfg.Ledger), log)
	pooledCommands, err := service.NewWorkerPoolCommandService(commandService, service.WorkerPoolConfig{Size: cfg.WorkerPool.Size}, log)
	if err != nil {
		log.Error("Failed to initialize command worker pool", "error", err)
		os.Exit(1)
	}
	commandHandler := consumer.NewCommandHandler(log, pooledCommands, dlqProducer)

	// Outbox relay
	relay := outbox_poller.NewEventRelay(eventArchive, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, postgresDB, outboxRepo, relay, log)

	// Interest batch
	interestRunner, err := interest.NewRunner(&cfg.Interest, cfg.WorkerPool.Size, accountRepo, engine, log)
	if err != nil {
		log.Error("Failed to initialize interest runner", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	log.Info("Starting Kafka consumer", "topic", cfg.Kafka.CommandTopic, "group", cfg.Kafka.ConsumerGroup)
	if err := kafkaConsumer.Subscribe(appCtx, commandHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()
	go func() {
		defer wg.Done()
		interestRunner.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serviceErr = <-errChan:
		log.Error("Service error occurred", "error", serviceErr)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	done := make(chan struct{})
	go func() {
		kafkaConsumer.Wait()
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("All services stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	pooledCommands.Shutdown()
	interestRunner.Shutdown()

	var shutdownErr error
	closeWith := func(name string, closeFn func() error) {
		if err := closeFn(); err != nil {
			log.Error("Error closing "+name, "error", err)
			shutdownErr = err
		}
	}
	closeWith("Kafka consumer", kafkaConsumer.Close)
	closeWith("event producer", eventProducer.Close)
	closeWith("DLQ producer", dlqProducer.Close)
	closeWith("lock coordinator", locker.Close)
	closeWith("MongoDB connection", func() error { return mongoDB.Close(shutdownCtx) })
	postgresDB.Close()

	if serviceErr != nil || shutdownErr != nil {
		log.Error("Ledger worker shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Ledger worker shutdown completed successfully")
}
