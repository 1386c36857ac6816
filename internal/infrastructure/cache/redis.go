package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// RedisReportCache guarda el reporte serializado en JSON con TTL.
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

// NewRedisReportCache usa un cliente compartido (el mismo del candado distribuido).
func NewRedisReportCache(client *redis.Client, prefix string) *RedisReportCache {
	return &RedisReportCache{client: client, prefix: prefix}
}

func (c *RedisReportCache) Get(ctx context.Context, key string) (*entity.AuditReport, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var report entity.AuditReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, false, fmt.Errorf("decode audit report: %w", err)
	}
	return &report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, report *entity.AuditReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode audit report: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
