package app

import (
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/messaging/kafka"
)

// StorageDriver выбирает реализацию репозиториев.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// RedisAddr включает хранение ключей идемпотентности в Redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Если KafkaBrokers пуст, события outbox только логируются.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string
	JWTTTL    time.Duration

	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, выше которого /healthz отдаёт degraded.
	OutboxMaxPending int

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	PlacementMaxAttempts int
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:    ":50051",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		KafkaTopic: kafka.TopicMarketplaceEvents,

		JWTTTL: 24 * time.Hour,

		RateLimitRPS:   20,
		RateLimitBurst: 40,

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   100 * time.Millisecond,
		OutboxMaxPending:   1000,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,

		PlacementMaxAttempts: 3,
	}
}
