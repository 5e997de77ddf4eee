package app

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/messaging/kafka"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GRPCAddr != ":50051" {
		t.Errorf("expected GRPCAddr :50051, got %s", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.KafkaTopic != kafka.TopicMarketplaceEvents {
		t.Errorf("expected KafkaTopic %s, got %s", kafka.TopicMarketplaceEvents, cfg.KafkaTopic)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no kafka brokers by default, got %v", cfg.KafkaBrokers)
	}
	if cfg.JWTSecret != "" {
		t.Error("expected JWTSecret to be empty by default")
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("expected JWTTTL 24h, got %s", cfg.JWTTTL)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		t.Errorf("expected positive rate limit, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.OutboxPollInterval <= 0 {
		t.Error("expected OutboxPollInterval to be > 0")
	}
	if cfg.OutboxBatchSize <= 0 {
		t.Error("expected OutboxBatchSize to be > 0")
	}
	if cfg.OutboxMaxAttempts <= 0 {
		t.Error("expected OutboxMaxAttempts to be > 0")
	}
	if cfg.OutboxRetryDelay < 0 {
		t.Error("expected OutboxRetryDelay to be >= 0")
	}
	if cfg.OutboxMaxPending <= 0 {
		t.Error("expected OutboxMaxPending to be > 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		t.Error("expected IdempotencyTTL to be > 0")
	}
	if cfg.IdempotencyCleanupInterval <= 0 {
		t.Error("expected IdempotencyCleanupInterval to be > 0")
	}
	if cfg.IdempotencyCleanupBatchSize <= 0 {
		t.Error("expected IdempotencyCleanupBatchSize to be > 0")
	}
	if cfg.PlacementMaxAttempts <= 0 {
		t.Error("expected PlacementMaxAttempts to be > 0")
	}
}

func TestConfig_EmptyValues(t *testing.T) {
	cfg := Config{}

	if cfg.GRPCAddr != "" || cfg.HTTPAddr != "" || cfg.MetricsAddr != "" {
		t.Errorf("expected empty addresses, got %q %q %q", cfg.GRPCAddr, cfg.HTTPAddr, cfg.MetricsAddr)
	}
	if cfg.StorageDriver != "" {
		t.Errorf("expected empty StorageDriver, got %s", cfg.StorageDriver)
	}
	if cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be false for zero value")
	}
}
