package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/greenlogist/internal/app"
)

const (
	envLogLevel = "GREENLOGIST_LOG_LEVEL"

	envGRPCAddr    = "GREENLOGIST_GRPC_ADDR"
	envHTTPAddr    = "GREENLOGIST_HTTP_ADDR"
	envMetricsAddr = "GREENLOGIST_METRICS_ADDR"

	envStorageDriver       = "GREENLOGIST_STORAGE_DRIVER"
	envPostgresDSN         = "GREENLOGIST_POSTGRES_DSN"
	envPostgresAutoMigrate = "GREENLOGIST_POSTGRES_AUTO_MIGRATE"

	envRedisAddr     = "GREENLOGIST_REDIS_ADDR"
	envRedisPassword = "GREENLOGIST_REDIS_PASSWORD"
	envRedisDB       = "GREENLOGIST_REDIS_DB"

	envKafkaBrokers = "GREENLOGIST_KAFKA_BROKERS"
	envKafkaTopic   = "GREENLOGIST_KAFKA_TOPIC"

	envJWTSecret = "GREENLOGIST_JWT_SECRET"
	envJWTTTL    = "GREENLOGIST_JWT_TTL"

	envRateLimitRPS       = "GREENLOGIST_RATE_LIMIT_RPS"
	envRateLimitBurst     = "GREENLOGIST_RATE_LIMIT_BURST"
	envCORSAllowedOrigins = "GREENLOGIST_CORS_ALLOWED_ORIGINS"

	envOutboxPollInterval = "GREENLOGIST_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize    = "GREENLOGIST_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts  = "GREENLOGIST_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay   = "GREENLOGIST_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending   = "GREENLOGIST_OUTBOX_MAX_PENDING"

	envIdempotencyTTL              = "GREENLOGIST_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "GREENLOGIST_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "GREENLOGIST_IDEMPOTENCY_CLEANUP_BATCH_SIZE"

	envPlacementMaxAttempts = "GREENLOGIST_PLACEMENT_MAX_ATTEMPTS"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на app.DefaultConfig.
// Невалидное значение не прерывает запуск: остаётся значение по умолчанию, а ошибка
// возвращается как предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []error) {
	cfg := app.DefaultConfig()
	var warnings []error

	str := func(key string, dst *string) {
		if v, ok := nonEmpty(lookup, key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := nonEmpty(lookup, key); ok {
			*dst = splitList(v)
		}
	}
	boolean := func(key string, dst *bool) {
		v, ok := nonEmpty(lookup, key)
		if !ok {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	integer := func(key string, dst *int, valid func(int) bool, rule string) {
		v, ok := nonEmpty(lookup, key)
		if !ok {
			return
		}
		parsed, err := parseInt(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	duration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := nonEmpty(lookup, key)
		if !ok {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }

	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)

	if v, ok := nonEmpty(lookup, envStorageDriver); ok {
		switch driver := app.StorageDriver(strings.ToLower(v)); driver {
		case app.StorageDriverMemory, app.StorageDriverPostgres:
			cfg.StorageDriver = driver
		default:
			warnings = append(warnings, fmt.Errorf("%s: unsupported storage driver %q", envStorageDriver, v))
		}
	}
	str(envPostgresDSN, &cfg.PostgresDSN)
	boolean(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)

	str(envRedisAddr, &cfg.RedisAddr)
	str(envRedisPassword, &cfg.RedisPassword)
	integer(envRedisDB, &cfg.RedisDB, nonNegative, "must be >= 0")

	list(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envKafkaTopic, &cfg.KafkaTopic)

	str(envJWTSecret, &cfg.JWTSecret)
	duration(envJWTTTL, &cfg.JWTTTL, positiveDuration, "must be > 0")

	if v, ok := nonEmpty(lookup, envRateLimitRPS); ok {
		rps, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Errorf("%s: invalid number %q", envRateLimitRPS, v))
		case rps < 0:
			warnings = append(warnings, fmt.Errorf("%s: must be >= 0", envRateLimitRPS))
		default:
			cfg.RateLimitRPS = rps
		}
	}
	integer(envRateLimitBurst, &cfg.RateLimitBurst, positive, "must be > 0")
	list(envCORSAllowedOrigins, &cfg.CORSAllowedOrigins)

	duration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	integer(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	integer(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	duration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, func(v time.Duration) bool { return v >= 0 }, "must be >= 0")
	integer(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegative, "must be >= 0")

	duration(envIdempotencyTTL, &cfg.IdempotencyTTL, positiveDuration, "must be > 0")
	duration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	integer(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positive, "must be > 0")

	integer(envPlacementMaxAttempts, &cfg.PlacementMaxAttempts, positive, "must be > 0")

	return cfg, warnings
}

func nonEmpty(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	if !valid(v) {
		return 0, fmt.Errorf("value %d %s", v, rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if !valid(v) {
		return 0, fmt.Errorf("value %s %s", v, rule)
	}
	return v, nil
}
