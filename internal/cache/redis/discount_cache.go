// Package redis - распределённый кэш определений промокодов (JSON в Redis с TTL).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
)

var _ ports.DiscountCache = (*DiscountCache)(nil)

const defaultKeyPrefix = "pricing:discount:"

// DiscountCache - кэш промокодов в Redis. Ошибки Redis не пробрасываются
// в Get: сервис продолжает работать через хранилище, сбой только логируется.
type DiscountCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    ports.Logger
}

// Options - параметры подключения и хранения.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// KeyPrefix - префикс ключей; пустой - "pricing:discount:".
	KeyPrefix string
}

// NewClient - клиент Redis с проверкой соединения.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewDiscountCache - конструктор. ttl <= 0 - ключи без истечения.
func NewDiscountCache(client *redis.Client, opts Options, log ports.Logger) *DiscountCache {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &DiscountCache{client: client, ttl: opts.TTL, prefix: prefix, log: log}
}

func (c *DiscountCache) key(code string) string { return c.prefix + code }

// Get - промах при отсутствии ключа, ошибке Redis или битом значении.
func (c *DiscountCache) Get(ctx context.Context, code string) (*domain.DiscountCode, bool) {
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		c.log.Warnf(ctx, "redis get %s: %v", code, err)
		return nil, false
	}

	var d domain.DiscountCode
	if err := json.Unmarshal(raw, &d); err != nil {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		c.log.Warnf(ctx, "redis decode %s: %v", code, err)
		_ = c.client.Del(ctx, c.key(code)).Err()
		return nil, false
	}

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return &d, true
}

func (c *DiscountCache) Set(ctx context.Context, discount *domain.DiscountCode) error {
	if discount == nil || discount.Code == "" {
		return nil
	}
	payload, err := json.Marshal(discount)
	if err != nil {
		return fmt.Errorf("encode discount %s: %w", discount.Code, err)
	}
	if err := c.client.Set(ctx, c.key(discount.Code), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", discount.Code, err)
	}
	return nil
}

func (c *DiscountCache) Invalidate(ctx context.Context, code string) error {
	n, err := c.client.Del(ctx, c.key(code)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", code, err)
	}
	if n > 0 {
		metrics.CacheOps.WithLabelValues("invalidated").Inc()
	}
	return nil
}

// WarmUp - запись набора кодов одним pipeline.
func (c *DiscountCache) WarmUp(ctx context.Context, discounts []*domain.DiscountCode) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range discounts {
			if d == nil || d.Code == "" {
				continue
			}
			payload, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("encode discount %s: %w", d.Code, err)
			}
			pipe.Set(ctx, c.key(d.Code), payload, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis warm-up: %w", err)
	}
	return nil
}
