package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const defaultKeyTTL = 24 * time.Hour

// GuardConfig задаёт параметры Guard.
type GuardConfig struct {
	// TTL — сколько хранится результат запроса.
	TTL time.Duration
	// StatusOf переводит ошибку в код ответа, который сохраняется рядом с результатом.
	StatusOf func(error) int
	Clock    func() time.Time
	Logger   *log.Entry
}

// Guard выполняет запрос не более одного раза на idempotency-key и
// возвращает сохранённый результат при повторе.
type Guard struct {
	repo     domain.IdempotencyRepository
	ttl      time.Duration
	statusOf func(error) int
	now      func() time.Time
	logger   *log.Entry
}

type failurePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewGuard создаёт Guard поверх репозитория ключей.
func NewGuard(repo domain.IdempotencyRepository, cfg GuardConfig) *Guard {
	g := &Guard{
		repo:     repo,
		ttl:      cfg.TTL,
		statusOf: cfg.StatusOf,
		now:      cfg.Clock,
		logger:   cfg.Logger,
	}
	if g.ttl <= 0 {
		g.ttl = defaultKeyTTL
	}
	if g.statusOf == nil {
		g.statusOf = func(error) int { return 0 }
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}
	if g.logger == nil {
		g.logger = log.WithField("component", "idempotency-guard")
	}
	return g
}

// Do выполняет fn под ключом key. Пустой ключ или nil Guard означают обычный вызов.
// Тело запроса вместе со scope хешируется: тот же ключ с другим телом отклоняется.
func Do[T any](ctx context.Context, g *Guard, key, scope string, request any, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	key = strings.TrimSpace(key)
	if g == nil || g.repo == nil || key == "" {
		return fn(ctx)
	}

	hash, err := RequestHash(scope, request)
	if err != nil {
		return zero, fmt.Errorf("hash idempotent request: %w", err)
	}

	record, err := g.repo.CreateProcessing(key, hash, g.now().Add(g.ttl))
	if err != nil {
		return replay[T](g, key, record, err)
	}

	resp, runErr := fn(ctx)
	if runErr != nil {
		if retryable(runErr) {
			g.release(key)
		} else {
			g.storeFailure(key, runErr)
		}
		return resp, runErr
	}

	body, err := json.Marshal(resp)
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotent response")
		return resp, nil
	}
	if err := g.repo.MarkDone(key, body, g.statusOf(nil)); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
	return resp, nil
}

// RequestHash — sha256 от scope и JSON-представления запроса.
func RequestHash(scope string, request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write([]byte(scope))
	sum.Write([]byte{':'})
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

func replay[T any](g *Guard, key string, record domain.IdempotencyRecord, createErr error) (T, error) {
	var zero T
	if !errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists) {
		if !domain.IsIdempotencyConflict(createErr) {
			g.logger.WithError(createErr).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		}
		return zero, createErr
	}

	switch record.Status {
	case domain.IdempotencyStatusDone:
		var resp T
		if err := json.Unmarshal(record.ResponseBody, &resp); err != nil {
			return zero, fmt.Errorf("decode cached response for key %s: %w", key, err)
		}
		return resp, nil
	case domain.IdempotencyStatusFailed:
		var payload failurePayload
		if err := json.Unmarshal(record.ResponseBody, &payload); err != nil {
			return zero, domain.ErrorFromCode("", "previous request with the same idempotency key failed")
		}
		return zero, domain.ErrorFromCode(payload.Code, payload.Message)
	default:
		return zero, domain.NewError(domain.ErrIdempotencyKeyAlreadyExists, "request with key %s is still processing", key)
	}
}

// retryable сообщает, что ошибка не окончательная: повтор с тем же ключом
// должен выполнить запрос заново, а не вернуть сохранённую ошибку.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	kind, _ := domain.Describe(err)
	return kind == domain.KindConcurrency || kind == domain.KindInternal
}

func (g *Guard) release(key string) {
	if err := g.repo.Release(key); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to release idempotency key")
	}
}

func (g *Guard) storeFailure(key string, runErr error) {
	_, code := domain.Describe(runErr)
	// голый sentinel хранится без текста: ErrorFromCode восстановит его по коду
	payload := failurePayload{Code: code}
	var de *domain.Error
	if errors.As(runErr, &de) {
		payload.Message = de.Message
	}

	body, err := json.Marshal(payload)
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotency failure")
		body = nil
	}
	if err := g.repo.MarkFailed(key, body, g.statusOf(runErr)); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotency failure")
	}
}
