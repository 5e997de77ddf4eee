// Package redis хранит ключи идемпотентности в Redis с нативным TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultKeyPrefix   = "greenlogist:idempotency:"
)

// Options описывает подключение к Redis.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Client оборачивает go-redis клиент.
type Client struct {
	rdb    *goredis.Client
	prefix string
}

// Open подключается к Redis и проверяет доступность командой PING.
func Open(ctx context.Context, opts Options) (*Client, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: defaultDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{rdb: rdb, prefix: prefix}, nil
}

// Ping используется readiness-пробой.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return errors.New("redis client is not initialized")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает соединения.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) key(k string) string {
	return c.prefix + k
}
