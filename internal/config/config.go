// Package config loads and validates the settings shared by the ledger API and
// the ledger worker. Every value can come from a .env file under ./configs or
// from the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lock backends understood by the account lock coordinator.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config is the full runtime configuration of one ledger binary.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Locking     LockingConfig
	Ledger      LedgerConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Interest    InterestConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig describes the command, event and dead letter topics
type KafkaConfig struct {
	Brokers           string
	CommandTopic      string // ledger commands submitted asynchronously
	EventTopic        string // ledger events relayed from the outbox
	DLQTopic          string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
	LockTimeout     time.Duration // applied with SET LOCAL lock_timeout inside ledger transactions
}

type MongoDBConfig struct {
	URI              string
	Database         string
	EventsCollection string
	Timeout          time.Duration
	MaxPoolSize      uint64
	MinPoolSize      uint64
	MaxConnIdleTime  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockingConfig tunes the per-account lock coordinator
type LockingConfig struct {
	Backend     string
	WaitTimeout time.Duration // bounded wait before an operation fails with a lock timeout
	Expiry      time.Duration // redis only: lease length of a held lock
	RetryDelay  time.Duration // redis only: delay between acquisition attempts
	KeyPrefix   string
}

type LedgerConfig struct {
	RequireActive        bool // reject operations on FROZEN and DORMANT accounts at the boundary
	CommandRetryAttempts int
	CommandRetryBackoff  time.Duration
}

type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

type WorkerPoolConfig struct {
	Size int
}

// InterestConfig controls the scheduled interest batch. A zero RunInterval disables it.
type InterestConfig struct {
	RunInterval time.Duration
	BatchSize   int
	ActorID     string
}

// validate collects every configuration problem into a single error
func (c *Config) validate() error {
	var validationErrors []string
	positive := func(ok bool, key string) {
		if !ok {
			validationErrors = append(validationErrors, fmt.Sprintf("%s must be greater than 0", key))
		}
	}
	required := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("%s is required", key))
		}
	}

	positive(c.Server.Port > 0, "SERVER_PORT")
	positive(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT")
	positive(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT")
	positive(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT")
	positive(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT")

	required(c.Kafka.Brokers, "KAFKA_BROKERS")
	required(c.Kafka.CommandTopic, "KAFKA_COMMAND_TOPIC")
	required(c.Kafka.EventTopic, "KAFKA_EVENT_TOPIC")
	required(c.Kafka.DLQTopic, "KAFKA_DLQ_TOPIC")
	required(c.Kafka.ConsumerGroup, "KAFKA_CONSUMER_GROUP")
	positive(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES")
	positive(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES")
	positive(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT")

	required(c.Postgres.URL, "POSTGRES_URL")
	positive(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS")
	positive(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS")
	positive(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME")
	positive(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME")
	if c.Postgres.LockTimeout < 0 {
		validationErrors = append(validationErrors, "POSTGRES_LOCK_TIMEOUT must not be negative")
	}

	required(c.MongoDB.URI, "MONGO_URI")
	required(c.MongoDB.Database, "MONGO_DATABASE")
	required(c.MongoDB.EventsCollection, "MONGO_EVENTS_COLLECTION")
	positive(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT")
	positive(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE")
	positive(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE")
	positive(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME")

	switch c.Locking.Backend {
	case LockBackendLocal:
	case LockBackendRedis:
		required(c.Redis.Addr, "REDIS_ADDR")
		positive(c.Locking.Expiry > 0, "LOCK_EXPIRY")
		positive(c.Locking.RetryDelay > 0, "LOCK_RETRY_DELAY")
		if c.Locking.Expiry > 0 && c.Locking.Expiry <= c.Locking.WaitTimeout {
			validationErrors = append(validationErrors, "LOCK_EXPIRY must be longer than LOCK_WAIT_TIMEOUT")
		}
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("LOCK_BACKEND must be %q or %q", LockBackendLocal, LockBackendRedis))
	}
	positive(c.Locking.WaitTimeout > 0, "LOCK_WAIT_TIMEOUT")

	positive(c.Ledger.CommandRetryAttempts > 0, "LEDGER_COMMAND_RETRY_ATTEMPTS")
	positive(c.Ledger.CommandRetryBackoff > 0, "LEDGER_COMMAND_RETRY_BACKOFF")

	positive(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL")
	positive(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE")
	positive(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS")

	positive(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE")

	if c.Interest.RunInterval < 0 {
		validationErrors = append(validationErrors, "INTEREST_RUN_INTERVAL must not be negative")
	}
	positive(c.Interest.BatchSize > 0, "INTEREST_BATCH_SIZE")
	required(c.Interest.ActorID, "INTEREST_ACTOR_ID")

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
