package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const (
	opTimeout       = 3 * time.Second
	defaultTTL      = 24 * time.Hour
	maxWatchRetries = 3
)

// storedRecord — JSON-представление записи в Redis.
type storedRecord struct {
	RequestHash  string    `json:"request_hash"`
	ResponseBody []byte    `json:"response_body,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Status       string    `json:"status"`
	TTLAt        time.Time `json:"ttl_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type idempotencyRepository struct {
	client *Client
	now    func() time.Time
}

// NewIdempotencyRepository создаёт реализацию IdempotencyRepository поверх Redis.
// Срок жизни ключа задаётся через PXAT, поэтому истёкшие записи удаляет сам Redis.
func NewIdempotencyRepository(client *Client) domain.IdempotencyRepository {
	return &idempotencyRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *idempotencyRepository) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key, requestHash = strings.TrimSpace(key), strings.TrimSpace(requestHash)
	switch {
	case key == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	case requestHash == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := r.now()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultTTL)
	}
	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	raw, err := encode(record)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ttl := record.TTLAt.Sub(now)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	created, err := r.client.rdb.SetNX(ctx, r.client.key(key), raw, ttl).Result()
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("redis setnx idempotency key: %w", err)
	}
	if created {
		return record, nil
	}

	existing, err := r.Get(key)
	if err != nil {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyAlreadyExists
	}
	if existing.RequestHash != requestHash {
		return existing, domain.ErrIdempotencyHashMismatch
	}
	return existing, domain.ErrIdempotencyKeyAlreadyExists
}

func (r *idempotencyRepository) Get(key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := r.client.rdb.Get(ctx, r.client.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
		}
		return domain.IdempotencyRecord{}, fmt.Errorf("redis get idempotency key: %w", err)
	}
	return decode(key, raw)
}

func (r *idempotencyRepository) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (r *idempotencyRepository) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return r.finish(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

func (r *idempotencyRepository) Release(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	removed, err := r.client.rdb.Del(ctx, r.client.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del idempotency key: %w", err)
	}
	if removed == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

// DeleteExpired ничего не делает: Redis удаляет ключи по TTL самостоятельно.
func (r *idempotencyRepository) DeleteExpired(time.Time, int) (int, error) {
	return 0, nil
}

// finish обновляет запись в WATCH-транзакции, сохраняя оставшийся TTL.
func (r *idempotencyRepository) finish(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	redisKey := r.client.key(key)
	update := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return domain.ErrIdempotencyKeyNotFound
			}
			return fmt.Errorf("redis get idempotency key: %w", err)
		}
		record, err := decode(key, raw)
		if err != nil {
			return err
		}
		record.Status = status
		record.ResponseBody = append([]byte(nil), responseBody...)
		record.HTTPStatus = httpStatus
		record.UpdatedAt = r.now()
		encoded, err := encode(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.SetArgs(ctx, redisKey, encoded, goredis.SetArgs{Mode: "XX", KeepTTL: true})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.client.rdb.Watch(ctx, update, redisKey)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return domain.ErrVersionConflict
}

func encode(record domain.IdempotencyRecord) ([]byte, error) {
	raw, err := json.Marshal(storedRecord{
		RequestHash:  record.RequestHash,
		ResponseBody: record.ResponseBody,
		HTTPStatus:   record.HTTPStatus,
		Status:       string(record.Status),
		TTLAt:        record.TTLAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}
	return raw, nil
}

func decode(key string, raw []byte) (domain.IdempotencyRecord, error) {
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("decode idempotency record %s: %w", key, err)
	}
	record := domain.IdempotencyRecord{
		Key:          key,
		RequestHash:  stored.RequestHash,
		ResponseBody: stored.ResponseBody,
		HTTPStatus:   stored.HTTPStatus,
		Status:       domain.IdempotencyStatus(stored.Status),
		TTLAt:        stored.TTLAt,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    stored.UpdatedAt,
	}
	if !record.Status.Valid() {
		return domain.IdempotencyRecord{}, fmt.Errorf("invalid idempotency status %q for key %s", stored.Status, key)
	}
	return record, nil
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
